package cmd

import (
	"github.com/spf13/cobra"

	"AginMusic/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动 Subsonic 网关服务",
	Long:  `启动 AginMusic 的 HTTP 服务，在 /rest/{action} 下提供 Subsonic 兼容接口`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			cfg.Port = port
		}
		return server.Start(cfg)
	},
}

func init() {
	serverCmd.Flags().StringP("port", "p", "", "覆盖 PORT 环境变量")
	rootCmd.AddCommand(serverCmd)
}
