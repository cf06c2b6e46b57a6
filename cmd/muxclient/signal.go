// +build linux darwin freebsd

package main

import (
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/encryptogroup/abychanmux/chanmux"
)

// activeSession holds the session main's run loop is currently relaying
// over, so sigHandler can reach its byte counters without threading a
// channel through run().
var activeSession atomic.Pointer[chanmux.Session]

func init() {
	go sigHandler()
}

func sigHandler() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1)
	signal.Ignore(syscall.SIGPIPE)

	for {
		switch <-ch {
		case syscall.SIGUSR1:
			session := activeSession.Load()
			if session == nil {
				log.Println("chanmux stats: no active session")
				continue
			}
			sock := session.Socket()
			log.Printf("chanmux stats: sent=%d received=%d", sock.BytesSent(), sock.BytesReceived())
		}
	}
}
