package chanmux

import "encoding/binary"

// frameHeaderLen is the on-wire size of a frame header: 1 byte channel id
// plus an 8 byte little-endian length.
const frameHeaderLen = 1 + 8

// writeFrameHeader encodes (channelID, length) into the 9-byte header
// layout a Frame uses on the wire.
func writeFrameHeader(channelID ChannelID, length uint64) [frameHeaderLen]byte {
	var hdr [frameHeaderLen]byte
	hdr[0] = channelID
	binary.LittleEndian.PutUint64(hdr[1:], length)
	return hdr
}

// readFrameHeader decodes a 9-byte header previously produced by
// writeFrameHeader.
func readFrameHeader(hdr [frameHeaderLen]byte) (channelID ChannelID, length uint64) {
	channelID = hdr[0]
	length = binary.LittleEndian.Uint64(hdr[1:])
	return
}

// idLenPrefixLen is the size of the (start_id, len) prefix an "id/len
// block" carries ahead of its payload.
const idLenPrefixLen = 8 + 8

// encodeIDLenPrefix prepends a little-endian (id, len) pair to payload,
// returning a freshly allocated buffer.
func encodeIDLenPrefix(payload []byte, id, length uint64) []byte {
	buf := make([]byte, idLenPrefixLen+len(payload))
	binary.LittleEndian.PutUint64(buf[0:8], id)
	binary.LittleEndian.PutUint64(buf[8:16], length)
	copy(buf[idLenPrefixLen:], payload)
	return buf
}

// decodeIDLenPrefix splits a buffer produced by encodeIDLenPrefix back into
// its (id, len) header and payload slice. The payload aliases buf; callers
// that retain it beyond the call should copy if buf's backing array may be
// reused.
func decodeIDLenPrefix(buf []byte) (id, length uint64, payload []byte) {
	id = binary.LittleEndian.Uint64(buf[0:8])
	length = binary.LittleEndian.Uint64(buf[8:16])
	payload = buf[idLenPrefixLen:]
	return
}
