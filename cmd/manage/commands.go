package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"yatube/internal/config"
	"yatube/internal/db"
	"yatube/internal/forms"
	"yatube/internal/logging"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/storage"
	"yatube/internal/utils"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

type env struct {
	configPath string
	cfg        *config.Config
	db         *gorm.DB
}

// open 加载配置并连接数据库, 每个子命令执行前调用
func (e *env) open() error {
	if e.db != nil {
		return nil
	}
	cfg, err := config.Load(e.configPath)
	if err != nil {
		return err
	}
	logging.Init(cfg.Log.Level, cfg.Log.Pretty)

	gdb, err := db.Open(cfg.Database)
	if err != nil {
		return err
	}
	e.cfg = cfg
	e.db = gdb
	return nil
}

func newRootCommand() *cobra.Command {
	e := &env{}
	cmd := &cobra.Command{
		Use:           "manage",
		Short:         "Yatube administration commands",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.open()
		},
	}
	cmd.PersistentFlags().StringVarP(&e.configPath, "config", "c", "", "directory containing config.yaml")

	cmd.AddCommand(
		newMigrateCommand(e),
		newGroupCommand(e),
		newUserCommand(e),
		newMediaCommand(e),
	)
	return cmd
}

func newMigrateCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := db.Migrate(e.db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newGroupCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage post groups",
	}
	cmd.AddCommand(
		newGroupCreateCommand(e),
		newGroupListCommand(e),
		newGroupDeleteCommand(e),
		newGroupImportCommand(e),
	)
	return cmd
}

func newGroupCreateCommand(e *env) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create <slug> <title>",
		Short: "Create a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			group := &models.Group{Slug: args[0], Title: args[1], Description: description}
			err := repository.NewGroupRepository(e.db).Create(context.Background(), group)
			if errors.Is(err, repository.ErrDuplicate) {
				return fmt.Errorf("group with slug %q already exists", group.Slug)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created group %d %s\n", group.ID, group.Slug)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "group description")
	return cmd
}

func newGroupListCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := repository.NewGroupRepository(e.db).List(context.Background())
			if err != nil {
				return err
			}
			for _, g := range groups {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", g.ID, g.Slug, g.Title)
			}
			return nil
		},
	}
}

func newGroupDeleteCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a group; its posts stay without a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid group id %q", args[0])
			}
			if err := repository.NewGroupRepository(e.db).Delete(context.Background(), uint(id)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted group %d\n", id)
			return nil
		},
	}
}

// newGroupImportCommand 从 YAML 批量导入分组, 已存在的 slug 跳过:
//
//	groups:
//	  - slug: cats
//	    title: Cats
//	    description: All about cats
func newGroupImportCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Create groups listed in a YAML file, skipping existing slugs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			v.SetConfigFile(args[0])
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			var groups []models.Group
			if err := v.UnmarshalKey("groups", &groups); err != nil {
				return fmt.Errorf("decode groups: %w", err)
			}
			for _, g := range groups {
				if g.Slug == "" || g.Title == "" {
					return fmt.Errorf("every group needs a slug and a title")
				}
			}
			if err := db.SeedGroups(e.db, groups); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d groups\n", len(groups))
			return nil
		},
	}
}

func newMediaCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "media",
		Short: "Inspect uploaded post images",
	}
	cmd.AddCommand(newMediaVerifyCommand(e))
	return cmd
}

// newMediaVerifyCommand 找出数据库里引用了但存储中已经不存在的图片
func newMediaVerifyCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Report posts whose image is missing from storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, err := storage.New(ctx, e.cfg.Storage)
			if err != nil {
				return err
			}

			var posts []models.Post
			if err := e.db.Where("image <> ''").Order("id").Find(&posts).Error; err != nil {
				return err
			}

			missing := 0
			for _, p := range posts {
				ok, err := store.Exists(ctx, p.Image)
				if err != nil {
					return fmt.Errorf("check %s: %w", p.Image, err)
				}
				if !ok {
					missing++
					fmt.Fprintf(cmd.OutOrStdout(), "missing\tpost %d\t%s\n", p.ID, p.Image)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d images checked, %d missing\n", len(posts), missing)
			if missing > 0 {
				return fmt.Errorf("%d images missing", missing)
			}
			return nil
		},
	}
}

func newUserCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(newUserCreateCommand(e))
	return cmd
}

func newUserCreateCommand(e *env) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user without going through the signup form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form := forms.SignupForm{
				Username:        args[0],
				Email:           email,
				Password:        password,
				PasswordConfirm: password,
			}
			if errs := form.Clean(); !errs.Valid() {
				for field, msg := range errs {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", field, msg)
				}
				return fmt.Errorf("invalid user")
			}

			hash, err := utils.HashPassword(form.Password)
			if err != nil {
				return err
			}
			user := &models.User{Username: form.Username, Email: form.Email, Password: hash}
			err = repository.NewUserRepository(e.db).Create(context.Background(), user)
			if errors.Is(err, repository.ErrDuplicate) {
				return fmt.Errorf("user %q already exists", user.Username)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %d %s\n", user.ID, user.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (at least 8 characters)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
