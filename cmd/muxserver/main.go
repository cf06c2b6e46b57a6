// The MIT License (MIT)
//
// # Copyright (c) 2016 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package main

import (
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/urfave/cli"
	kcp "github.com/xtaci/kcp-go/v5"

	"github.com/encryptogroup/abychanmux/chanmux"
	"github.com/encryptogroup/abychanmux/dialer"
	"github.com/encryptogroup/abychanmux/generic"
	"github.com/encryptogroup/abychanmux/std"
)

// VERSION is injected by buildflags.
var VERSION = "SELFBUILD"

// workerPollInterval bounds how often an idle channel worker rechecks for
// data once its channel has been opened but nothing has arrived yet.
const workerPollInterval = 20 * time.Millisecond

func main() {
	if VERSION == "SELFBUILD" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	myApp := cli.NewApp()
	myApp.Name = "muxserver"
	myApp.Usage = "dials a fixed target for every pre-addressed chanmux channel"
	myApp.Version = VERSION
	myApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "listen,l",
			Value: ":29900",
			Usage: `listen address, eg: "IP:29900" for a single port, "IP:minport-maxport" for port range`,
		},
		cli.StringFlag{
			Name:  "target,t",
			Value: "127.0.0.1:12948",
			Usage: "target address each relayed channel dials",
		},
		cli.IntFlag{
			Name:  "peerid",
			Value: 0,
			Usage: "peer id expected in the connection handshake",
		},
		cli.IntFlag{
			Name:  "conn",
			Value: 16,
			Usage: "number of pre-addressed channels to run a relay worker for",
		},
		cli.BoolFlag{
			Name:  "tcp",
			Usage: "listen through tcpraw instead of plain KCP/UDP",
		},
		cli.BoolFlag{
			Name:  "nocomp",
			Usage: "disable snappy compression on the underlying socket",
		},
		cli.IntFlag{
			Name:  "datashard,ds",
			Value: 10,
			Usage: "reed-solomon erasure coding data shard count",
		},
		cli.IntFlag{
			Name:  "parityshard,ps",
			Value: 3,
			Usage: "reed-solomon erasure coding parity shard count",
		},
		cli.IntFlag{
			Name:  "keepalive",
			Value: 10,
			Usage: "keepalive interval in seconds; only checked to be non-negative, no keepalive traffic is sent",
		},
		cli.StringFlag{
			Name:  "log",
			Value: "",
			Usage: "specify a log file to output, default goes to stderr",
		},
		cli.StringFlag{
			Name:  "statslog",
			Value: "",
			Usage: "collect byte counters to file, aware of timeformat in golang",
		},
		cli.IntFlag{
			Name:  "statsperiod",
			Value: 60,
			Usage: "stats collect period, in seconds",
		},
		cli.BoolFlag{
			Name:  "quiet",
			Usage: "suppress the 'channel open/close' messages",
		},
		cli.StringFlag{
			Name:  "c",
			Value: "",
			Usage: "config from json file, which will override the command from shell",
		},
	}
	myApp.Action = run
	myApp.Run(os.Args)
}

func run(c *cli.Context) error {
	config := Config{
		Listen:      c.String("listen"),
		Target:      c.String("target"),
		PeerID:      uint32(c.Int("peerid")),
		Conn:        c.Int("conn"),
		TCP:         c.Bool("tcp"),
		NoComp:      c.Bool("nocomp"),
		DataShard:   c.Int("datashard"),
		ParityShard: c.Int("parityshard"),
		KeepAlive:   c.Int("keepalive"),
		Log:         c.String("log"),
		StatsLog:    c.String("statslog"),
		StatsPeriod: c.Int("statsperiod"),
		Quiet:       c.Bool("quiet"),
	}

	if c.String("c") != "" {
		checkError(parseJSONConfig(&config, c.String("c")))
	}

	_, err := std.BuildSessionConfig(config.Conn, chanmux.MaxFrameLen, config.KeepAlive, !config.NoComp)
	checkError(err)

	if config.Log != "" {
		f, err := os.OpenFile(config.Log, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		checkError(err)
		defer f.Close()
		log.SetOutput(f)
	}

	log.Println("version:", VERSION)
	log.Println("listen:", config.Listen)
	log.Println("target:", config.Target)
	log.Println("peerid:", config.PeerID)
	log.Println("conn:", config.Conn)
	log.Println("tcp:", config.TCP)
	log.Println("compression:", !config.NoComp)
	log.Println("datashard:", config.DataShard, "parityshard:", config.ParityShard)

	addrs, err := dialer.ListenRange(config.Listen)
	checkError(err)

	var wg sync.WaitGroup
	for _, addr := range addrs {
		var lis *kcp.Listener
		var err error
		if config.TCP {
			lis, err = dialer.ListenKCPOverTCP(addr, config.DataShard, config.ParityShard)
		} else {
			lis, err = dialer.ListenKCP(addr, config.DataShard, config.ParityShard)
		}
		checkError(err)
		log.Println("listening on:", addr)

		wg.Add(1)
		go acceptLoop(lis, &config, &wg)
	}
	wg.Wait()
	return nil
}

// acceptLoop terminates inbound sessions on lis and hands each to
// handleSession in its own goroutine.
func acceptLoop(lis *kcp.Listener, config *Config, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		conn, err := lis.AcceptKCP()
		if err != nil {
			log.Printf("%+v\n", err)
			return
		}
		go handleSession(conn, config)
	}
}

// handleSession runs the peer handshake on conn, constructs a chanmux
// Session over it, and starts one persistent relay worker per
// pre-addressed channel id. Channel ids are agreed out of band (-conn on
// both ends) rather than accepted dynamically, per the non-dynamic channel
// allocation the transport is built around.
func handleSession(conn net.Conn, config *Config) {
	if err := dialer.Handshake(conn, config.PeerID, 0); err != nil {
		log.Println("handshake:", err)
		conn.Close()
		return
	}
	log.Println("session established:", conn.RemoteAddr())

	var sock chanmux.Socket
	if config.NoComp {
		sock = chanmux.NewCountingSocket(conn)
	} else {
		sock = chanmux.NewCountingSocket(std.NewCompStream(conn))
	}
	session := chanmux.NewSession(sock)
	activeSession.Store(session)

	if config.StatsLog != "" {
		go std.StatsLogger(session, config.StatsLog, config.StatsPeriod)
	}

	mux := generic.NewSessionMux(session)

	var wg sync.WaitGroup
	for id := 1; id <= config.Conn; id++ {
		wg.Add(1)
		go func(id uint8) {
			defer wg.Done()
			channelWorker(mux, id, config)
		}(uint8(id))
	}
	wg.Wait()
}

// channelWorker loops opening id, waiting for the relayed connection the
// client side puts on it, dialing the target, and piping the two together
// until the relay ends, then opens id again for the next connection. This
// mirrors cmd/muxclient's allocate/release pool from the server side:
// closing a Stream obtained from SessionMux.Open frees its channel id in
// the Session, so the same pre-addressed id can carry many successive
// connections over the life of one mux session.
func channelWorker(mux *generic.SessionMux, id uint8, config *Config) {
	logln := func(v ...any) {
		if !config.Quiet {
			log.Println(v...)
		}
	}

	for {
		stream, err := mux.Open(id)
		if err != nil {
			return
		}

		if cs, ok := stream.(*generic.ChannelStream); ok {
			for !cs.DataAvailable() {
				if !cs.IsAlive() {
					stream.Close()
					return
				}
				time.Sleep(workerPollInterval)
			}
		}

		target, err := net.Dial("tcp", config.Target)
		if err != nil {
			logln("dial target:", err)
			stream.Close()
			continue
		}

		logln("channel opened", "id:", id, "target:", target.RemoteAddr())
		errA, errB := std.Pipe(target, stream)
		logln("channel closed", "id:", id, "target:", target.RemoteAddr())
		if errA != nil {
			logln("pipe:", errA)
		}
		if errB != nil {
			logln("pipe:", errB)
		}
	}
}

func checkError(err error) {
	if err != nil {
		log.Printf("%+v\n", err)
		os.Exit(-1)
	}
}
