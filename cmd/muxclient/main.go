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
	"fmt"
	"log"
	"net"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli"

	"github.com/encryptogroup/abychanmux/chanmux"
	"github.com/encryptogroup/abychanmux/dialer"
	"github.com/encryptogroup/abychanmux/generic"
	"github.com/encryptogroup/abychanmux/std"
)

// VERSION is injected by buildflags.
var VERSION = "SELFBUILD"

func main() {
	if VERSION == "SELFBUILD" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	myApp := cli.NewApp()
	myApp.Name = "muxclient"
	myApp.Usage = "local TCP listener relayed across one chanmux session"
	myApp.Version = VERSION
	myApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "localaddr,l",
			Value: ":12948",
			Usage: "local listen address",
		},
		cli.StringFlag{
			Name:  "remoteaddr,r",
			Value: "vps:29900",
			Usage: "muxserver address",
		},
		cli.IntFlag{
			Name:  "peerid",
			Value: 0,
			Usage: "peer id exchanged in the connection handshake",
		},
		cli.IntFlag{
			Name:  "conn",
			Value: 16,
			Usage: "number of pre-addressed channels to hand out to accepted connections",
		},
		cli.BoolFlag{
			Name:  "tcp",
			Usage: "dial through tcpraw instead of plain KCP/UDP",
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
		LocalAddr:   c.String("localaddr"),
		RemoteAddr:  c.String("remoteaddr"),
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
	log.Println("localaddr:", config.LocalAddr)
	log.Println("remoteaddr:", config.RemoteAddr)
	log.Println("peerid:", config.PeerID)
	log.Println("conn:", config.Conn)
	log.Println("tcp:", config.TCP)
	log.Println("compression:", !config.NoComp)
	log.Println("datashard:", config.DataShard, "parityshard:", config.ParityShard)

	listener, err := net.Listen("tcp", config.LocalAddr)
	checkError(err)
	log.Println("listening on:", listener.Addr())

	dial := func() (net.Conn, error) {
		if config.TCP {
			return dialer.DialKCPOverTCP(config.RemoteAddr, config.DataShard, config.ParityShard)
		}
		return dialer.DialKCP(config.RemoteAddr, config.DataShard, config.ParityShard)
	}

	conn, err := dialer.DialFuncRetry(dial, config.PeerID, 0, dialer.RetryConnect, dialer.RetryInterval)
	checkError(err)
	log.Println("connected to:", conn.RemoteAddr())

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

	pool := newChannelPool(config.Conn)
	mux := generic.NewSessionMux(session)

	for {
		p1, err := listener.Accept()
		if err != nil {
			log.Printf("%+v\n", err)
			continue
		}
		go handleConn(mux, pool, p1, config.Quiet)
	}
}

func handleConn(mux *generic.SessionMux, pool *channelPool, p1 net.Conn, quiet bool) {
	logln := func(v ...any) {
		if !quiet {
			log.Println(v...)
		}
	}

	defer p1.Close()

	id, err := pool.allocate()
	if err != nil {
		logln(color.RedString("%v", err))
		return
	}
	defer pool.release(id)

	p2, err := mux.Open(id)
	if err != nil {
		logln(err)
		return
	}
	defer p2.Close()

	logln("channel opened", "in:", p1.RemoteAddr(), "out:", fmt.Sprintf("(%d)", p2.ID()))
	defer logln("channel closed", "in:", p1.RemoteAddr(), "out:", fmt.Sprintf("(%d)", p2.ID()))

	errA, errB := std.Pipe(p1, p2)
	if errA != nil {
		logln("pipe:", errA)
	}
	if errB != nil {
		logln("pipe:", errB)
	}
}

func checkError(err error) {
	if err != nil {
		log.Printf("%+v\n", err)
		os.Exit(-1)
	}
}
