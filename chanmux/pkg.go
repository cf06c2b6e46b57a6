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

// Package chanmux implements a multiplexed, bidirectional, reliable message
// transport on top of a single stream-oriented connection. A Session owns
// one receiver pump and one sender pump; applications open Channels, each
// exposing a blocking send/receive interface addressed by an 8-bit id.
package chanmux

const (
	// MaxChannels bounds the number of addressable channels. Channel 0 is
	// reserved as the admin channel and carries only shutdown signals.
	MaxChannels = 256

	// AdminChannel is never directly usable by applications.
	AdminChannel ChannelID = 0

	// MaxFrameLen is the largest payload a single frame may carry.
	MaxFrameLen uint64 = 1 << 40
)

// ChannelID addresses one of the MaxChannels logical channels.
type ChannelID = uint8
