package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/chatmerge/internal/config"
	"github.com/tildaslashalef/chatmerge/internal/database"
	"github.com/tildaslashalef/chatmerge/internal/utils"
)

// InitCommand returns the CLI command for initializing chatmerge
func InitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize or update the chatmerge environment",
		Description: "Creates the configuration directory with a sample .env file and the merge " +
			"history database. Run it once before the first merge, or after upgrading to apply " +
			"new schema migrations.",
		Action: initAction,
	}
}

func initAction(c *cli.Context) error {
	utils.PrintHeading("Initializing chatmerge")

	configDir := c.String("config-dir")
	if configDir == "" {
		dir, err := config.DefaultConfigDir()
		if err != nil {
			utils.PrintError(err.Error())
			return err
		}
		configDir = dir
	}
	utils.PrintInfo("Configuration directory: " + color.YellowString("%s", configDir))

	// An existing .env is left untouched
	utils.PrintInfo("Extracting default configuration file")
	if err := config.SetupConfigDirectory(configDir, false); err != nil {
		utils.PrintError(fmt.Sprintf("Failed to set up configuration directory: %s", err))
		return fmt.Errorf("failed to set up configuration directory: %w", err)
	}

	cfg, err := config.LoadFromEnv(configDir, "")
	if err != nil {
		utils.PrintError(fmt.Sprintf("Failed to load configuration: %s", err))
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	utils.PrintInfo("Initializing database...")
	if err := database.InitDB(cfg); err != nil {
		utils.PrintError(fmt.Sprintf("Failed to initialize database: %s", err))
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.CloseDB()

	utils.PrintInfo("Applying database migrations...")
	if err := database.RunMigrations(); err != nil {
		utils.PrintError(fmt.Sprintf("Failed to apply migrations: %s", err))
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	utils.PrintSuccess("chatmerge initialized successfully!")
	utils.PrintKeyValue("Database", cfg.Database.Path)
	utils.PrintKeyValue("Log file", cfg.Logging.Output)
	utils.PrintKeyValue("Backend", cfg.Backend.URL)
	fmt.Fprintln(utils.Output)
	utils.PrintInfo("Set CHATMERGE_BACKEND_TOKEN in " + color.YellowString("%s/.env", configDir) +
		", then run " + color.CyanString("chatmerge merge --master A --slave B") + ".")

	return nil
}
