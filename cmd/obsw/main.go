// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command obsw is the TMTC backbone process: it wires together the packet
// pool, verification reporter, event manager, TC distributor and service
// handlers, the framed TCP TMTC server, the periodic HK collector, the
// NATS event bridge and the operator-facing REST control plane, then runs
// until asked to stop.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/gops/agent"

	"github.com/skyhaven-space/obsw/internal/auth"
	"github.com/skyhaven-space/obsw/internal/config"
	"github.com/skyhaven-space/obsw/internal/controlplane"
	"github.com/skyhaven-space/obsw/internal/distributor"
	"github.com/skyhaven-space/obsw/internal/events"
	"github.com/skyhaven-space/obsw/internal/funnel"
	"github.com/skyhaven-space/obsw/internal/hkexpr"
	"github.com/skyhaven-space/obsw/internal/housekeeping"
	"github.com/skyhaven-space/obsw/internal/metrics"
	"github.com/skyhaven-space/obsw/internal/natsbridge"
	"github.com/skyhaven-space/obsw/internal/parsers"
	"github.com/skyhaven-space/obsw/internal/pool"
	"github.com/skyhaven-space/obsw/internal/pusevents"
	"github.com/skyhaven-space/obsw/internal/scheduler"
	"github.com/skyhaven-space/obsw/internal/services"
	"github.com/skyhaven-space/obsw/internal/taskManager"
	"github.com/skyhaven-space/obsw/internal/telemetrybridge"
	"github.com/skyhaven-space/obsw/internal/tmsink"
	"github.com/skyhaven-space/obsw/internal/tmtcserver"
	"github.com/skyhaven-space/obsw/internal/verification"
	"github.com/skyhaven-space/obsw/pkg/log"
	obswnats "github.com/skyhaven-space/obsw/pkg/nats"
)

// poolOccupancySource turns the shared packet pool's own occupancy figures
// into an HK sample — a real, always-available telemetry source that needs
// no mission-specific sensor to demonstrate the periodic collection path.
type poolOccupancySource struct {
	pool *pool.SharedPool
}

func (s *poolOccupancySource) Measurement() string { return "pool_occupancy" }
func (s *poolOccupancySource) UniqueID() uint32     { return 0 }

func (s *poolOccupancySource) Sample() (map[string]float64, error) {
	buckets, err := s.pool.Occupancy()
	if err != nil {
		return nil, err
	}
	sample := make(map[string]float64, len(buckets)*2)
	for i, b := range buckets {
		sample[fmt.Sprintf("bucket_%d_used", i)] = float64(b.InUse)
		sample[fmt.Sprintf("bucket_%d_capacity", i)] = float64(b.Total)
		if b.Total > 0 {
			metrics.PoolOccupancy.WithLabelValues(fmt.Sprintf("%d", i)).Set(float64(b.InUse) / float64(b.Total))
		}
	}
	return sample, nil
}

// emptyHKRouter and emptyActionRouter stand in for the domain subsystems
// (attitude, power, thermal) that would normally register themselves as HK
// and action targets; the TMTC backbone itself has no such targets, only
// the routing surface PUS 3/8 command them through.
type emptyHKRouter struct{}

func (emptyHKRouter) LookupHKTarget(uint32) (services.HKTarget, bool) { return nil, false }

type emptyActionRouter struct{}

func (emptyActionRouter) LookupActionTarget(uint32) (services.ActionTarget, bool) { return nil, false }

func main() {
	var flagConfigFile string
	var flagGops bool
	var flagAddUser, flagDelUser string
	flag.StringVar(&flagConfigFile, "config", "./config.json", "mission configuration file")
	flag.BoolVar(&flagGops, "gops", false, "listen via github.com/google/gops/agent (for debugging)")
	flag.StringVar(&flagAddUser, "add-user", "", "add an operator. Argument format: <username>:<role>:<password>")
	flag.StringVar(&flagDelUser, "del-user", "", "remove an operator by username")
	flag.Parse()

	if flagGops {
		if err := agent.Listen(agent.Options{}); err != nil {
			log.Critf("gops/agent.Listen failed: %s", err.Error())
			os.Exit(1)
		}
	}

	if err := config.Load(flagConfigFile); err != nil {
		log.Critf("config: %s", err.Error())
		os.Exit(1)
	}

	authn, err := auth.Init(config.Keys.AuthConfigs())
	if err != nil {
		log.Critf("auth: %s", err.Error())
		os.Exit(1)
	}
	if maxAge, perr := time.ParseDuration(config.Keys.SessionMaxAge); perr == nil {
		authn.SessionMaxAge = maxAge
	}

	if flagAddUser != "" || flagDelUser != "" {
		runUserCLI(authn, flagAddUser, flagDelUser)
		return
	}

	ldapSyncInterval := ""
	if config.Keys.LDAP != nil {
		ldapSyncInterval = config.Keys.LDAP.SyncInterval
	}
	if err := taskManager.Start(ldapSyncInterval); err != nil {
		log.Critf("taskManager: %s", err.Error())
		os.Exit(1)
	}
	defer taskManager.Shutdown()

	sharedPool := pool.NewShared(pool.New(bucketConfigs(config.Keys)))

	outbound := tmtcserver.NewOutboundQueue(256)
	tmFunnel := funnel.New(sharedPool, config.Keys.Apid, outbound, 256)
	sink := tmsink.New(sharedPool, tmFunnel)
	reporter := verification.NewReporter(verification.Config{Apid: config.Keys.Apid, DestID: config.Keys.DestID}, sink)

	eventBus := events.NewBus(256)
	eventMgr := events.NewManager()

	pusEventDispatcher := pusevents.NewDispatcher(pusevents.Config{Apid: config.Keys.Apid, DestID: config.Keys.DestID})
	eventMgr.AddSender(pusevents.NewManagerSender(1, pusEventDispatcher, sink, pusTimeStampNow))
	eventMgr.SubscribeAll(1)

	if config.Keys.NatsURL != "" {
		obswnats.Keys.Address = config.Keys.NatsURL
		natsSender, nerr := natsbridge.Connect(2, config.Keys.NatsSubjectPrefix)
		if nerr != nil {
			log.Warnf("natsbridge: %s", nerr.Error())
		} else {
			eventMgr.AddSender(natsSender)
			eventMgr.SubscribeAll(natsSender.ID())
		}
	}

	dist := distributor.New(sharedPool, reporter, pusTimeStampNow, config.Keys.TcIngressRate, config.Keys.TcIngressBurst)
	sched := scheduler.New(time.Now().Unix(), config.Keys.SchedulerMargin)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	registerServiceHandlers(ctx, dist, sharedPool, reporter, sink, sched, pusEventDispatcher, config.Keys.Apid, config.Keys.DestID)

	hkMgr, err := buildHousekeeping(config.Keys, sharedPool)
	if err != nil {
		log.Critf("housekeeping: %s", err.Error())
		os.Exit(1)
	}
	hkMgr.Start()
	defer hkMgr.Shutdown()

	statusFn := controlplane.StatusFunc(func() (interface{}, error) {
		occ, err := sharedPool.Occupancy()
		if err != nil {
			return nil, err
		}
		snapshot := map[string]interface{}{
			"pool_occupancy":    occ,
			"scheduler_count":   sched.NumScheduled(),
			"scheduler_enabled": sched.IsEnabled(),
		}
		if config.Keys.NatsURL != "" {
			if natsClient := obswnats.GetClient(); natsClient != nil {
				snapshot["nats_connected"] = natsClient.IsConnected()
				snapshot["nats_reconnects"] = natsClient.Reconnects()
			}
		}
		return snapshot, nil
	})
	cpServer := controlplane.New(controlplane.Config{Addr: config.Keys.Addr}, authn, statusFn)

	tcRecv := parsers.TcReceiverFunc(func(packet []byte) {
		addr, aerr := sharedPool.Alloc(len(packet))
		if aerr != nil {
			log.Warnf("tc ingress: alloc %d bytes: %v", len(packet), aerr)
			return
		}
		if werr := sharedPool.WriteBytes(addr, packet); werr != nil {
			log.Warnf("tc ingress: write: %v", werr)
			_ = sharedPool.Free(addr)
			return
		}
		if herr := dist.HandleTc(addr); herr != nil {
			log.Warnf("tc ingress: %v", herr)
		}
	})

	tmtcSrv, err := tmtcserver.Listen(tmtcserver.Config{
		Addr:           config.Keys.TmtcAddr,
		InnerLoopDelay: 200 * time.Millisecond,
		TcBufferSize:   4096,
	}, tmtcserver.CobsTcParser{}, tmtcserver.CobsTmFramer{}, tcRecv, outbound)
	if err != nil {
		log.Critf("tmtcserver: %s", err.Error())
		os.Exit(1)
	}

	go tmFunnel.Run(ctx)
	go eventMgr.Run(ctx, eventBus)
	go func() {
		if serveErr := tmtcSrv.Serve(ctx); serveErr != nil {
			log.Errorf("tmtcserver: %s", serveErr.Error())
		}
	}()
	go func() {
		if serveErr := cpServer.Serve(ctx); serveErr != nil {
			log.Errorf("controlplane: %s", serveErr.Error())
		}
	}()

	log.Infof("obsw: listening tmtc=%s control-plane=%s", config.Keys.TmtcAddr, config.Keys.Addr)

	<-ctx.Done()
	log.Info("obsw: shutting down")
	_ = tmtcSrv.Close()
}

// registerServiceHandlers builds one Handler + Inbox per implemented PUS
// service, registers each with the distributor, and starts its Run loop.
func registerServiceHandlers(
	ctx context.Context,
	dist *distributor.Distributor,
	sharedPool *pool.SharedPool,
	reporter *verification.Reporter,
	sink *tmsink.Sink,
	sched *scheduler.Scheduler,
	pusEventDispatcher *pusevents.Dispatcher,
	apid uint16,
	destID uint16,
) {
	type serviceSpec struct {
		id       uint8
		name     string
		dispatch services.DispatchFunc
	}

	scheduleNestedTc := services.NewScheduleNestedTc(sharedPool, sched)

	specs := []serviceSpec{
		{17, "test", services.DispatchTest(nil)},
		{5, "event-control", services.DispatchEvent(pusEventDispatcher)},
		{11, "scheduler", services.DispatchScheduler(sched, scheduleNestedTc)},
		{3, "housekeeping-control", services.DispatchHK(emptyHKRouter{})},
		{8, "action", services.DispatchAction(emptyActionRouter{})},
	}

	for _, spec := range specs {
		inbox := services.NewInbox(64)
		handler := &services.Handler{
			Name:      spec.name,
			Apid:      apid,
			DestID:    destID,
			Pool:      sharedPool,
			Reporter:  reporter.Clone(),
			Sink:      sink,
			Inbox:     inbox,
			TimeStamp: pusTimeStampNow,
		}
		dist.RegisterService(spec.id, inbox)
		go handler.Run(ctx, spec.dispatch)
	}
}

func buildHousekeeping(c config.Config, sharedPool *pool.SharedPool) (*housekeeping.Manager, error) {
	hkDefs := make([]hkexpr.Definition, 0, len(c.PoolBucketSizes))
	for i := range c.PoolBucketSizes {
		hkDefs = append(hkDefs, hkexpr.Definition{
			Name: fmt.Sprintf("bucket_%d_free_pct", i),
			Expr: fmt.Sprintf("100 - (bucket_%d_used / bucket_%d_capacity * 100)", i, i),
		})
	}

	codec, err := telemetrybridge.NewArchiveCodec()
	if err != nil {
		return nil, err
	}

	mgr, err := housekeeping.NewManager(hkDefs,
		func(rec telemetrybridge.Record) error {
			_, lerr := telemetrybridge.EncodeLineProtocol(rec)
			return lerr
		},
		func(rec telemetrybridge.Record) error {
			_, aerr := codec.EncodeArchive(rec)
			return aerr
		},
	)
	if err != nil {
		return nil, err
	}
	if err := mgr.RegisterSource(&poolOccupancySource{pool: sharedPool}, 30*time.Second); err != nil {
		return nil, err
	}
	return mgr, nil
}

func bucketConfigs(c config.Config) []pool.BucketConfig {
	cfgs := make([]pool.BucketConfig, len(c.PoolBucketSizes))
	for i, size := range c.PoolBucketSizes {
		cfgs[i] = pool.BucketConfig{SlotSize: size, NumSlots: c.PoolBucketCap}
	}
	return cfgs
}

// pusTimeStampNow produces the 6-byte CDS-like timestamp every PUS TM in
// this process is addressed with: a 16-bit day segment since the CCSDS
// epoch and a 32-bit millisecond-of-day count, coarse enough for
// verification reporting cadence.
func pusTimeStampNow() []byte {
	now := time.Now().UTC()
	epoch := time.Date(1958, 1, 1, 0, 0, 0, 0, time.UTC)
	days := uint16(now.Sub(epoch).Hours() / 24)
	msOfDay := uint32(now.Sub(now.Truncate(24 * time.Hour)).Milliseconds())
	return []byte{
		byte(days >> 8), byte(days),
		byte(msOfDay >> 24), byte(msOfDay >> 16), byte(msOfDay >> 8), byte(msOfDay),
	}
}

func runUserCLI(authn *auth.Authentication, add, del string) {
	if del != "" {
		if err := authn.DelUser(del); err != nil {
			log.Critf("del-user: %s", err.Error())
			os.Exit(1)
		}
		log.Infof("removed operator %q", del)
	}
	if add == "" {
		return
	}
	parts := strings.SplitN(add, ":", 3)
	if len(parts) != 3 {
		log.Crit("add-user: expected <username>:<role>:<password>")
		os.Exit(1)
	}
	username, role, password := parts[0], parts[1], parts[2]
	if err := authn.AddUser(&auth.User{Username: username, Roles: []string{role}, Password: password}); err != nil {
		log.Critf("add-user: %s", err.Error())
		os.Exit(1)
	}
	log.Infof("added operator %q with role %q", username, role)
}
