package gena

import "encoding/binary"

// frameNotify and unframeNotify pair a SEQ with its NOTIFY body inside the
// single []byte unit that HostSubscription's FIFO moves, so SEQ assignment
// and body ordering travel atomically through one mutex-guarded queue.
func frameNotify(seq uint32, body []byte) []byte {
	frame := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(frame, seq)
	copy(frame[4:], body)
	return frame
}

func unframeNotify(frame []byte) (uint32, []byte) {
	return binary.BigEndian.Uint32(frame), frame[4:]
}
