package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/safedep/dry/log"
	"github.com/spf13/cobra"

	"github.com/mcpadre/birdcage"
	"github.com/mcpadre/birdcage/config"
	"github.com/mcpadre/birdcage/internal/ui"
	"github.com/mcpadre/birdcage/profile"
)

var (
	debug bool

	allowRead  []string
	allowWrite []string
	allowExec  []string
	allowNet   bool

	envVars     []string
	keepEnv     []string
	fullEnv     bool
	profileName string
)

func main() {
	// Must run before anything else: on Linux the sandboxed child is a
	// re-exec of this binary and takes over the process here.
	if birdcage.Init() {
		return
	}

	cmd := &cobra.Command{
		Use:   "birdcage [flags] -- program [args...]",
		Short: "Run a program inside a restrictive sandbox",
		Long: `Run a program with all filesystem and network access denied except
what is explicitly granted. Grants are additive: combine -r, -w and -e
flags, or start from a profile with --profile.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				os.Setenv("APP_LOG_LEVEL", "debug")
			}

			log.InitZapLogger("birdcage", "")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := run(args); err != nil {
				ui.ErrorExit(err)
			}

			return nil
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	cmd.Flags().StringArrayVarP(&allowRead, "allow-read", "r", nil, "Grant read access to a path (repeatable)")
	cmd.Flags().StringArrayVarP(&allowWrite, "allow-write", "w", nil, "Grant read and write access to a path (repeatable)")
	cmd.Flags().StringArrayVarP(&allowExec, "allow-exec", "e", nil, "Grant read and execute access to a path (repeatable)")
	cmd.Flags().BoolVar(&allowNet, "allow-net", false, "Allow network access")
	cmd.Flags().StringArrayVar(&envVars, "env", nil, "Replace the environment with KEY=VALUE pairs (repeatable)")
	cmd.Flags().StringArrayVar(&keepEnv, "keep-env", nil, "Keep only the named environment variables (repeatable)")
	cmd.Flags().BoolVar(&fullEnv, "full-env", false, "Keep the full parent environment")
	cmd.Flags().StringVar(&profileName, "profile", "", "Apply a built-in profile or a custom profile file")

	config.ApplyCobraFlags(cmd)

	cmd.AddCommand(newVersionCommand())
	cmd.AddCommand(newProfilesCommand())
	cmd.AddCommand(newSetupCommand())

	if err := cmd.Execute(); err != nil {
		ui.ErrorExit(err)
	}
}

func run(args []string) error {
	cfg := config.Get()

	var opts []birdcage.Option
	if len(cfg.Config.LibraryRoots) > 0 {
		opts = append(opts, birdcage.WithLibraryRoots(cfg.Config.LibraryRoots...))
	}
	if cfg.Config.DisableLibraryClosure {
		opts = append(opts, birdcage.WithoutLibraryClosure())
	}
	opts = append(opts, birdcage.WithWarningHandler(func(w birdcage.ResolutionWarning) {
		ui.Warnf("%s", w.Error())
	}))

	sandbox := birdcage.New(opts...)

	if err := applyProfile(sandbox); err != nil {
		return err
	}

	if err := applyFlagExceptions(sandbox); err != nil {
		return err
	}

	// The program itself must be executable inside the sandbox.
	program, err := exec.LookPath(args[0])
	if err != nil {
		return fmt.Errorf("cannot find program %s: %w", args[0], err)
	}
	if err := sandbox.AddException(birdcage.Execute{Path: program}); err != nil {
		return err
	}

	if cfg.ShowPolicy {
		ui.RenderPolicy(os.Stdout, sandbox.Resolve())
	}

	command := birdcage.NewCommand(program, args[1:]...)
	command.Stdin = os.Stdin
	command.Stdout = os.Stdout
	command.Stderr = os.Stderr

	child, err := sandbox.Spawn(command)
	if err != nil {
		return err
	}

	state, err := child.Wait()
	if err != nil {
		return err
	}

	os.Exit(state.ExitCode())
	return nil
}

// applyProfile expands the requested profile, or the configured default
// profile, into sandbox exceptions. Explicit flags stack on top.
func applyProfile(sandbox *birdcage.Sandbox) error {
	name := profileName
	if name == "" {
		name = config.Get().Config.DefaultProfile
	}
	if name == "" {
		return nil
	}

	registry := profile.NewRegistry()
	p, err := registry.Get(name)
	if err != nil {
		return err
	}

	exceptions, err := p.Exceptions()
	if err != nil {
		return err
	}

	for _, exc := range exceptions {
		if err := sandbox.AddException(exc); err != nil {
			return err
		}
	}

	return nil
}

func applyFlagExceptions(sandbox *birdcage.Sandbox) error {
	var exceptions []birdcage.Exception

	for _, path := range allowRead {
		exceptions = append(exceptions, birdcage.Read{Path: path})
	}
	for _, path := range allowWrite {
		exceptions = append(exceptions, birdcage.Write{Path: path})
	}
	for _, path := range allowExec {
		exceptions = append(exceptions, birdcage.Execute{Path: path})
	}

	if allowNet {
		exceptions = append(exceptions, birdcage.Networking{})
	}

	if len(envVars) > 0 {
		vars := make(map[string]string, len(envVars))
		for _, kv := range envVars {
			name, value, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("invalid --env value %q, expected KEY=VALUE", kv)
			}
			vars[name] = value
		}
		exceptions = append(exceptions, birdcage.CustomEnvironment{Vars: vars})
	}

	for _, name := range keepEnv {
		exceptions = append(exceptions, birdcage.Environment{Name: name})
	}

	if fullEnv {
		exceptions = append(exceptions, birdcage.FullEnvironment{})
	}

	for _, exc := range exceptions {
		if err := sandbox.AddException(exc); err != nil {
			return err
		}
	}

	return nil
}
