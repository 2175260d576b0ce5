package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"AginMusic/core/auth"
	"AginMusic/db"
	"AginMusic/model"
	"AginMusic/repository"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "管理 AUTH_MODE=db 下的账号",
}

func openUserRepository() (repository.UserRepository, error) {
	gdb, err := db.ConnectGormDB(cfg)
	if err != nil {
		return nil, err
	}
	return repository.NewGormUserRepository(gdb), nil
}

var userAddCmd = &cobra.Command{
	Use:   "add <username> <password>",
	Short: "创建账号",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openUserRepository()
		if err != nil {
			return err
		}
		defer db.CloseGormDB()

		hash, err := auth.HashPassword(args[1])
		if err != nil {
			return err
		}
		email, _ := cmd.Flags().GetString("email")
		id, err := repo.CreateUser(cmd.Context(), &model.User{
			Username:     args[0],
			Email:        email,
			PasswordHash: hash,
			Enabled:      true,
		})
		if err != nil {
			return err
		}
		fmt.Printf("用户 %s 已创建 (id=%d)\n", args[0], id)
		return nil
	},
}

func setEnabledCmd(use, short string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <username>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openUserRepository()
			if err != nil {
				return err
			}
			defer db.CloseGormDB()
			return repo.SetEnabled(cmd.Context(), args[0], enabled)
		},
	}
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出所有账号",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openUserRepository()
		if err != nil {
			return err
		}
		defer db.CloseGormDB()

		users, err := repo.ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		for _, u := range users {
			fmt.Printf("%d\t%s\tenabled=%t\t%s\n", u.ID, u.Username, u.Enabled, u.CreatedAt.Format("2006-01-02"))
		}
		return nil
	},
}

func init() {
	userAddCmd.Flags().String("email", "", "邮箱")
	userCmd.AddCommand(userAddCmd,
		setEnabledCmd("enable", "启用账号", true),
		setEnabledCmd("disable", "禁用账号", false),
		userListCmd)
	rootCmd.AddCommand(userCmd)
}
