// slotmac simulates a slotted shared medium hosting a population of self-learning
// channel-access protocols (EB-ALOHA, ALOHA-Q, ALOHA-QT, ALOHA-QTF, AT-ALOHA),
// optionally driven through one of the classic activity schedules (ramp, churn, ...),
// persisting the resulting utilization/fairness statistics and optionally streaming
// live per-frame status over a websocket.
package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"slotmac/config"
	"slotmac/experiment"
	"slotmac/liveview"
	"slotmac/network"
	"slotmac/persist"
	"slotmac/protocol"
	"slotmac/rng"
	"slotmac/telemetry"
)

var (
	configPath *string
	outPath    *string
	numFrames  *int
)

// TODO: per 12-factor rules these should come from env or a config-map; KISS for now.
func init() {
	configPath = flag.String("config", "./config.yaml", "path to the run config YAML file")
	outPath = flag.String("out", "", "path to persist the run's stats JSON (skipped if empty)")
	numFrames = flag.Int("frames", 200, "number of frames to run for the default (driver-less) experiment")
	flag.Parse()
}

// buildFactory returns a PlayerFactory for cfg.Protocol, with the algorithmic
// tunables set below looked up by name from cfg.HyperParams via
// GetHyperParamOrDefault, falling back to that protocol's own constructor default
// when the run config doesn't name an override. ALOHA-QT/QTF's InitialTransmit and
// AT-ALOHA's MaxNumPolicies, MaxLevelDifference and StartLevelOffset are not
// overridable and keep their constructor defaults.
func buildFactory(cfg *config.RunConfig, r *rng.Source) experiment.PlayerFactory {
	maxPeriodExponent := int(cfg.GetHyperParamOrDefault("maxPeriodExponent", 8))
	numSlots := int(cfg.GetHyperParamOrDefault("numSlots", 64))
	initialLevel := int(cfg.GetHyperParamOrDefault("initialLevel", 1))

	return func(idx int) protocol.Node {
		name := fmt.Sprintf("%d", idx)
		switch cfg.Protocol {
		case "aloha-q":
			n := protocol.NewAlohaQ(name, true, numSlots, r)
			n.Alpha = cfg.GetHyperParamOrDefault("alpha", n.Alpha)
			n.Gamma = cfg.GetHyperParamOrDefault("gamma", n.Gamma)
			return n
		case "aloha-qt":
			n := protocol.NewAlohaQT(name, true, maxPeriodExponent, r)
			applyQTOverrides(cfg, n)
			return n
		case "aloha-qtf":
			n := protocol.NewAlohaQTF(name, true, maxPeriodExponent, r)
			applyQTOverrides(cfg, n.AlohaQT)
			return n
		case "at-aloha":
			n := protocol.NewATAloha(name, true, initialLevel, r)
			n.KindIncentive = cfg.GetHyperParamOrDefault("kindIncentive", n.KindIncentive)
			n.KindAdaptation = cfg.GetHyperParamOrDefault("kindAdaptation", n.KindAdaptation)
			n.MinKindIncentive = cfg.GetHyperParamOrDefault("minKindIncentive", n.MinKindIncentive)
			n.EmptyIncentive = cfg.GetHyperParamOrDefault("emptyIncentive", n.EmptyIncentive)
			n.EmptyAdaptation = cfg.GetHyperParamOrDefault("emptyAdaptation", n.EmptyAdaptation)
			n.FreeToCollision = cfg.GetHyperParamOrDefault("freeToCollision", n.FreeToCollision)
			n.MinEmptyIncentive = cfg.GetHyperParamOrDefault("minEmptyIncentive", n.MinEmptyIncentive)
			n.Kindness = int(cfg.GetHyperParamOrDefault("kindness", float64(n.Kindness)))
			return n
		default:
			n := protocol.NewEBAloha(name, true, r)
			n.Q = cfg.GetHyperParamOrDefault("q", n.Q)
			n.Bias = cfg.GetHyperParamOrDefault("bias", n.Bias)
			return n
		}
	}
}

// applyQTOverrides applies the hyperparameter overrides shared by ALOHA-QT and
// ALOHA-QTF (QTF embeds *AlohaQT, so the same field set applies to both).
func applyQTOverrides(cfg *config.RunConfig, n *protocol.AlohaQT) {
	n.IncSuccess = cfg.GetHyperParamOrDefault("incSuccess", n.IncSuccess)
	n.IncCollision = cfg.GetHyperParamOrDefault("incCollision", n.IncCollision)
	n.IncPotentialCollision = cfg.GetHyperParamOrDefault("incPotentialCollision", n.IncPotentialCollision)
	n.IncEmpty = cfg.GetHyperParamOrDefault("incEmpty", n.IncEmpty)
	n.OptimalityWindow = cfg.GetHyperParamOrDefault("optimalityWindow", n.OptimalityWindow)
	n.Relinquish = cfg.GetHyperParamOrDefault("relinquish", n.Relinquish)
}

// runDefault runs a flat, driver-less population (every player active throughout)
// for *numFrames frames, optionally streaming live frames to a liveview server.
func runDefault(ctx context.Context, cfg *config.RunConfig, r *rng.Source) (telemetry.Stats, error) {
	frameLen := int(cfg.GetHyperParamOrDefault("frameLen", 100))
	statLen := int(cfg.GetHyperParamOrDefault("statLen", 10))
	bottomFraction := cfg.GetHyperParamOrDefault("bottomFraction", 0.1)
	numPlayers := cfg.NumPlayers
	if numPlayers <= 0 {
		numPlayers = 10
	}

	factory := buildFactory(cfg, r)
	players := make([]protocol.Node, numPlayers)
	for i := range players {
		players[i] = factory(i)
	}
	net := network.New(players, nil, nil)
	run := telemetry.NewRun(net, frameLen)

	var frames chan liveview.Frame
	if cfg.Liveview != nil {
		frames = make(chan liveview.Frame, 8)
		srv := liveview.NewServer(cfg.Liveview.Addr, frames)
		go func() {
			if err := srv.Serve(ctx); err != nil {
				fmt.Println("liveview:", err)
			}
		}()
		defer close(frames)
	}

	for i := 0; i < *numFrames; i++ {
		run.RunFrame()
		if frames != nil {
			select {
			case frames <- liveview.FrameFromRun(run):
			default:
			}
		}
		select {
		case <-ctx.Done():
			return run.PrepareStats(statLen, bottomFraction), ctx.Err()
		default:
		}
	}
	return run.PrepareStats(statLen, bottomFraction), nil
}

// runExperiment dispatches to one of the fixed activity-schedule drivers. ramp-up and
// ramp-down return a slot history trace rather than a Stats summary (matching
// experiments.py itself), so they're printed rather than persisted.
func runExperiment(cfg *config.RunConfig, r *rng.Source) (telemetry.Stats, error) {
	frameLen := int(cfg.GetHyperParamOrDefault("frameLen", 100))
	statLen := int(cfg.GetHyperParamOrDefault("statLen", 10))
	bottomFraction := cfg.GetHyperParamOrDefault("bottomFraction", 0.1)
	factory := buildFactory(cfg, r)

	switch cfg.Experiment {
	case "ramp":
		run := experiment.Ramp(factory, frameLen)
		return run.PrepareStats(statLen, bottomFraction), nil
	case "reverse-ramp":
		run := experiment.ReverseRamp(factory, frameLen)
		return run.PrepareStats(statLen, bottomFraction), nil
	case "churn":
		numPlayers := cfg.NumPlayers
		if numPlayers <= 0 {
			numPlayers = 100
		}
		numSteps := int(cfg.GetHyperParamOrDefault("numSteps", 200))
		churnRate := cfg.GetHyperParamOrDefault("churnRate", 1.0/100)
		run := experiment.Churn(factory, numPlayers, numSteps, churnRate, frameLen, r)
		return run.PrepareStats(statLen, bottomFraction), nil
	case "ramp-up":
		minNodes := int(cfg.GetHyperParamOrDefault("minNodes", 10))
		maxNodes := int(cfg.GetHyperParamOrDefault("maxNodes", 100))
		history := experiment.RampUp(factory, frameLen, minNodes, maxNodes)
		fmt.Println(strings.Join(history, ""))
		return telemetry.Stats{}, nil
	case "ramp-down":
		minNodes := int(cfg.GetHyperParamOrDefault("minNodes", 10))
		maxNodes := int(cfg.GetHyperParamOrDefault("maxNodes", 100))
		history := experiment.RampDown(factory, frameLen, minNodes, maxNodes)
		fmt.Println(strings.Join(history, ""))
		return telemetry.Stats{}, nil
	default:
		return telemetry.Stats{}, fmt.Errorf("main: unknown experiment %q", cfg.Experiment)
	}
}

func runApp() error {
	cfg, err := config.FromYaml(*configPath)
	if err != nil {
		return fmt.Errorf("main: loading config: %w", err)
	}

	appCtx, appCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer appCancel()

	runCtx, runCancel, err := cfg.WithTrainingDeadline(appCtx)
	if err != nil {
		return fmt.Errorf("main: training deadline: %w", err)
	}
	defer runCancel()

	r := rng.New(cfg.Seed)

	var stats telemetry.Stats
	if cfg.Experiment == "" {
		stats, err = runDefault(runCtx, cfg, r)
	} else {
		stats, err = runExperiment(cfg, r)
	}
	if err != nil {
		return err
	}

	if *outPath != "" {
		if err := persist.SaveRuns(*outPath, []telemetry.Stats{stats}); err != nil {
			return fmt.Errorf("main: saving stats: %w", err)
		}
	}
	return nil
}

func main() {
	if err := runApp(); err != nil {
		fmt.Println(err)
	}
}
