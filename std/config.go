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

package std

import (
	"time"

	"github.com/pkg/errors"

	"github.com/encryptogroup/abychanmux/chanmux"
)

// SessionConfig holds the knobs a cmd/muxclient or cmd/muxserver process
// picks for the chanmux.Session it runs over a dialed/accepted socket.
type SessionConfig struct {
	MaxChannels  int
	MaxFrameLen  uint64
	KeepAlive    time.Duration
	Compress     bool
}

// BuildSessionConfig constructs a SessionConfig from CLI parameters and
// verifies the result, the way std/smuxcfg.go once verified an smux.Config.
func BuildSessionConfig(maxChannels int, maxFrameLen uint64, keepAliveSeconds int, compress bool) (*SessionConfig, error) {
	cfg := &SessionConfig{
		MaxChannels: maxChannels,
		MaxFrameLen: maxFrameLen,
		KeepAlive:   time.Duration(keepAliveSeconds) * time.Second,
		Compress:    compress,
	}
	return cfg, VerifyConfig(cfg)
}

// VerifyConfig rejects a SessionConfig that chanmux cannot honour.
func VerifyConfig(cfg *SessionConfig) error {
	if cfg.MaxChannels <= 0 || cfg.MaxChannels >= chanmux.MaxChannels {
		return errors.Errorf("invalid MaxChannels %d, must be in (0, %d)", cfg.MaxChannels, chanmux.MaxChannels)
	}
	if cfg.MaxFrameLen == 0 || cfg.MaxFrameLen > chanmux.MaxFrameLen {
		return errors.Errorf("invalid MaxFrameLen %d, must be in (0, %d]", cfg.MaxFrameLen, chanmux.MaxFrameLen)
	}
	if cfg.KeepAlive < 0 {
		return errors.New("invalid KeepAlive: must not be negative")
	}
	return nil
}
