package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"

	jRPC "github.com/0xPolygon/cdk-rpc/rpc"
	gate "github.com/l2gate/gate"
	"github.com/l2gate/gate/bridge"
	gateCommon "github.com/l2gate/gate/common"
	"github.com/l2gate/gate/config"
	"github.com/l2gate/gate/log"
	"github.com/l2gate/gate/messaging"
	"github.com/l2gate/gate/proxy"
	"github.com/l2gate/gate/rpc"
	"github.com/urfave/cli/v2"
)

func start(cliCtx *cli.Context) error {
	c, err := config.Load(cliCtx)
	if err != nil {
		return err
	}

	log.Init(c.Log)

	if c.Log.Environment == log.EnvironmentDevelopment {
		gate.PrintVersion(os.Stdout)
		log.Info("Starting application")
	} else if c.Log.Environment == log.EnvironmentProduction {
		logVersion()
	}

	b, err := bridge.New(log.WithFields("module", "bridge"), c.Bridge)
	if err != nil {
		log.Fatal(err)
	}

	dispatcher, err := createDispatcher(cliCtx.Context, b)
	if err != nil {
		log.Fatal(err)
	}

	inbox := messaging.NewInbox(log.WithFields("module", "inbox"))
	inbox.Register(messaging.HandleDepositName, b)

	components := cliCtx.StringSlice(config.FlagComponents)
	for _, component := range components {
		switch component {
		case gateCommon.RPC:
			server := createRPC(c.RPC, b, inbox, dispatcher)
			go func() {
				if err := server.Start(); err != nil {
					log.Fatal(err)
				}
			}()
		case gateCommon.RELAY:
			logger := log.WithFields("module", gateCommon.RELAY)
			relay := messaging.NewRelay(logger, b.Outbox(), messaging.NewLogSender(logger), c.Relay)
			go relay.Start(cliCtx.Context)
		}
	}

	waitSignal(nil)

	return nil
}

// createDispatcher registers the bridge as the active logic class under
// the governor recorded in storage.
func createDispatcher(ctx context.Context, b *bridge.Bridge) (*proxy.Dispatcher, error) {
	governor, err := b.GetGovernor(ctx)
	if err != nil {
		return nil, err
	}
	dispatcher := proxy.NewDispatcher(log.WithFields("module", "proxy"), governor)
	if err := dispatcher.AddImplementation(governor, b); err != nil {
		return nil, err
	}
	if err := dispatcher.UpgradeTo(governor, b); err != nil {
		return nil, err
	}
	return dispatcher, nil
}

func createRPC(cfg jRPC.Config, b *bridge.Bridge, inbox *messaging.Inbox, dispatcher *proxy.Dispatcher) *jRPC.Server {
	logger := log.WithFields("module", gateCommon.RPC)
	services := []jRPC.Service{
		{
			Name: rpc.GATE,
			Service: rpc.NewGateEndpoints(
				logger,
				cfg.WriteTimeout.Duration,
				cfg.ReadTimeout.Duration,
				b,
				inbox,
				dispatcher,
			),
		},
	}

	return jRPC.NewServer(cfg, services, jRPC.WithLogger(logger.GetSugaredLogger()))
}

func logVersion() {
	log.Infow("version info",
		// version is already logged by default
		"gitRevision", gate.GitRev,
		"gitBranch", gate.GitBranch,
		"goVersion", runtime.Version(),
		"built", gate.BuildDate,
		"os/arch", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	)
}

func waitSignal(cancelFuncs []context.CancelFunc) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt)

	for sig := range signals {
		switch sig {
		case os.Interrupt, os.Kill:
			log.Info("terminating application gracefully...")

			exitStatus := 0
			for _, cancel := range cancelFuncs {
				cancel()
			}
			os.Exit(exitStatus)
		}
	}
}
