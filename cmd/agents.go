package cmd

import (
	"fmt"

	"github.com/agentdeck/streamdown/internal/agents"
	"github.com/agentdeck/streamdown/internal/config"
	"github.com/spf13/cobra"
)

var agentsDryRun bool

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Manage agent configurations",
}

var agentsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push changed agent configs to the agents API",
	RunE:  runAgentsSync,
}

var agentsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which agent configs are out of sync",
	RunE:  runAgentsStatus,
}

func init() {
	agentsSyncCmd.Flags().BoolVar(&agentsDryRun, "dry-run", false, "Plan only, make no API calls")
	agentsCmd.AddCommand(agentsSyncCmd)
	agentsCmd.AddCommand(agentsStatusCmd)
	rootCmd.AddCommand(agentsCmd)
}

func agentsPlan() ([]agents.Action, *agents.LockFile, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	lock, err := agents.LoadLockFile(cfg.Agents.LockFile)
	if err != nil {
		return nil, nil, nil, err
	}
	actions, err := agents.Plan(cfg.Agents.Dir, lock)
	if err != nil {
		return nil, nil, nil, err
	}
	return actions, lock, cfg, nil
}

func runAgentsStatus(cmd *cobra.Command, args []string) error {
	actions, _, _, err := agentsPlan()
	if err != nil {
		return err
	}
	if len(actions) == 0 {
		fmt.Println("No agent configs found.")
		return nil
	}
	for _, a := range actions {
		fmt.Printf("%-12s %s\n", a.Op, a.Name)
	}
	return nil
}

func runAgentsSync(cmd *cobra.Command, args []string) error {
	actions, lock, cfg, err := agentsPlan()
	if err != nil {
		return err
	}

	pending := 0
	for _, a := range actions {
		if a.Op != agents.OpNone {
			pending++
		}
	}
	if pending == 0 {
		fmt.Println("All agents up to date.")
		return nil
	}
	if agentsDryRun {
		for _, a := range actions {
			if a.Op != agents.OpNone {
				fmt.Printf("would %s %s\n", a.Op, a.Name)
			}
		}
		return nil
	}

	if cfg.Agents.APIURL == "" {
		return fmt.Errorf("agents.api_url is not configured")
	}
	client := agents.NewAPIClient(cfg.Agents.APIURL, cfg.Agents.APIKey)
	res, err := agents.Apply(cmd.Context(), client, lock, actions)
	if err != nil {
		return err
	}
	if err := agents.SaveLockFile(cfg.Agents.LockFile, lock); err != nil {
		return err
	}
	fmt.Printf("Synced: %d created, %d updated, %d unchanged.\n", res.Created, res.Updated, res.Unchanged)
	return nil
}
