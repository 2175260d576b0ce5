package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"AginMusic/core/plugin"
)

var searchCmd = &cobra.Command{
	Use:   "search [keyword]",
	Short: "在所有已启用的音源中搜索歌曲",
	Long:  `并发查询各音源并打印结果，用于排查某个音源是否可用。`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keyword := strings.Join(args, " ")
		limit, _ := cmd.Flags().GetInt("limit")
		sourcesCSV, _ := cmd.Flags().GetString("sources")

		manager := plugin.NewManagerFromConfig(cfg)
		sources := manager.ParseSources(sourcesCSV)

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.SearchTimeout+cfg.DetailTimeout)
		defer cancel()
		result := manager.SearchAll(ctx, keyword, limit, sources)

		for _, src := range sources {
			fmt.Printf("%-8s %d\n", src, result.BySource[src])
		}
		fmt.Println(strings.Repeat("-", 40))
		for _, t := range result.Tracks {
			fmt.Printf("%s\t%s - %s\n", t.UID, t.Title, t.Artist)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntP("limit", "l", 10, "每个音源返回的数量 (1-50)")
	searchCmd.Flags().StringP("sources", "s", "", "逗号分隔的音源列表，默认全部")
	rootCmd.AddCommand(searchCmd)
}
