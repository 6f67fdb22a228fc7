/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/volta-networks/pcep/pcep/protocol"
	"github.com/volta-networks/pcep/pcep/session"
	"github.com/volta-networks/pcep/pcep/stats"
)

var (
	runServerFlag     string
	runPortFlag       int
	runConfigFlag     string
	runKeepaliveFlag  int
	runDeadTimerFlag  int
	runMonitoringFlag int
	runRequestID      uint32
	runComputeSrc     string
	runComputeDst     string
)

func init() {
	RootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runServerFlag, "server", "S", "", "PCE address to connect to")
	runCmd.Flags().IntVarP(&runPortFlag, "port", "p", protocol.PortPCEP, "PCE TCP port")
	runCmd.Flags().StringVarP(&runConfigFlag, "config", "c", "", "path to a yaml config file")
	runCmd.Flags().IntVar(&runKeepaliveFlag, "keepalive", 0, "keepalive seconds to propose, 0 keeps the config value")
	runCmd.Flags().IntVar(&runDeadTimerFlag, "deadtimer", 0, "dead timer seconds to propose, 0 keeps the config value")
	runCmd.Flags().IntVar(&runMonitoringFlag, "monitoringport", 0, "port to run the http json monitoring server on, 0 keeps the config value")
	runCmd.Flags().Uint32Var(&runRequestID, "request-id", 1, "request id for the path computation request")
	runCmd.Flags().StringVar(&runComputeSrc, "src", "", "source endpoint of a path computation request")
	runCmd.Flags().StringVar(&runComputeDst, "dst", "", "destination endpoint of a path computation request")
}

// prepareConfig merges the config file with CLI flag overrides
func prepareConfig() (*session.Config, error) {
	cfg := session.DefaultConfig()
	var err error
	warn := func(name string) {
		log.Warningf("overriding %s from CLI flag", name)
	}
	if runConfigFlag != "" {
		cfg, err = session.ReadConfig(runConfigFlag)
		if err != nil {
			return nil, fmt.Errorf("reading config from %q: %w", runConfigFlag, err)
		}
	}
	if runKeepaliveFlag != 0 && runKeepaliveFlag != cfg.KeepAliveSeconds {
		warn("keepalive")
		cfg.KeepAliveSeconds = runKeepaliveFlag
	}
	if runDeadTimerFlag != 0 && runDeadTimerFlag != cfg.DeadTimerSeconds {
		warn("deadtimer")
		cfg.DeadTimerSeconds = runDeadTimerFlag
	}
	if runMonitoringFlag != 0 && runMonitoringFlag != cfg.MonitoringPort {
		warn("monitoringport")
		cfg.MonitoringPort = runMonitoringFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computePath issues one PCReq and waits for the PCRep
func computePath(engine *session.Engine, s *session.Session) error {
	src := net.ParseIP(runComputeSrc)
	dst := net.ParseIP(runComputeDst)
	if src == nil || dst == nil {
		return fmt.Errorf("src %q and dst %q must be IP addresses", runComputeSrc, runComputeDst)
	}
	rr, err := engine.RegisterResponseMessage(s, runRequestID, s.LocalConfig.RequestTimeSeconds*1000)
	if err != nil {
		return err
	}
	defer engine.DestroyResponseMessage(rr)
	var endpoints protocol.Object
	if src.To4() != nil && dst.To4() != nil {
		endpoints = protocol.NewEndpointsIPv4(src, dst)
	} else {
		endpoints = protocol.NewEndpointsIPv6(src, dst)
	}
	m := protocol.NewPCReqMessage(protocol.NewRP(0, false, false, true, runRequestID), endpoints)
	if err := engine.SendMessage(s, m); err != nil {
		return err
	}
	if !rr.Wait() {
		return fmt.Errorf("no reply for request %d (%s)", runRequestID, rr.Status())
	}
	for _, reply := range rr.Responses() {
		if np, ok := reply.First(protocol.ObjectClassNoPath).(*protocol.NoPathObject); ok {
			log.Warningf("PCE found no path, nature of issue %d", np.NI)
			continue
		}
		if ero, ok := reply.First(protocol.ObjectClassERO).(*protocol.EROObject); ok {
			for i, sub := range ero.Subobjects {
				log.Infof("hop %d: %s", i, describeHop(sub))
			}
		}
	}
	return nil
}

func describeHop(sub protocol.ROSubobject) string {
	switch v := sub.(type) {
	case *protocol.IPv4Subobject:
		return fmt.Sprintf("%s/%d loose=%v", v.Addr, v.PrefixLength, v.Loose)
	case *protocol.IPv6Subobject:
		return fmt.Sprintf("%s/%d loose=%v", v.Addr, v.PrefixLength, v.Loose)
	case *protocol.SRSubobject:
		return fmt.Sprintf("SR sid=%#x nai=%s", v.SID, v.NAIType)
	default:
		return fmt.Sprintf("%s", sub.SubobjectType())
	}
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Establish a PCEP session towards a PCE and keep it alive",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		pceIP := net.ParseIP(runServerFlag)
		if pceIP == nil {
			log.Fatalf("--server must be a PCE IP address, got %q", runServerFlag)
		}
		cfg, err := prepareConfig()
		if err != nil {
			log.Fatal(err)
		}
		st := stats.NewJSONStats()
		if cfg.MonitoringPort != 0 {
			go st.Start(cfg.MonitoringPort)
		}
		engine := session.NewEngine(st)
		if err := engine.Run(); err != nil {
			log.Fatal(err)
		}
		defer engine.Stop()
		s, err := engine.CreateSession(cfg, pceIP, runPortFlag)
		if err != nil {
			log.Fatal(err)
		}
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		for {
			select {
			case <-sig:
				log.Infof("terminating")
				engine.DestroySession(s)
				return
			case ev := <-engine.Events():
				switch ev.Kind {
				case session.EventSessionUp:
					log.Infof("session %d established, keepalive=%ds", ev.Session.ID, ev.Session.KeepAlivePeriod())
					if runComputeSrc != "" || runComputeDst != "" {
						go func() {
							if err := computePath(engine, s); err != nil {
								log.Errorf("path computation: %v", err)
							}
						}()
					}
				case session.EventSessionClosed:
					log.Warningf("session %d closed", ev.Session.ID)
					return
				case session.EventMessage:
					log.Debugf("session %d delivered %s", ev.Session.ID, ev.Message.Type)
				case session.EventError:
					log.Errorf("session %d: %v", ev.Session.ID, ev.Err)
				}
			}
		}
	},
}
