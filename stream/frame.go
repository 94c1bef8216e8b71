// Package stream serves binary simulation snapshots to websocket clients.
package stream

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pthm-cable/broth/sim"
)

// FrameHeader prefixes every broadcast frame. All fields are
// little-endian on the wire.
type FrameHeader struct {
	Tick      uint32
	Count     uint32
	WorldSize float32
}

// wireParticle is the per-particle payload: position then type.
type wireParticle struct {
	X, Y, Z float32
	Type    uint32
}

// wireParticleSize is the encoded size of a wireParticle in bytes.
const wireParticleSize = 16

// EncodeFrame serializes a particle snapshot into a single binary frame:
// header followed by count wireParticle records.
func EncodeFrame(tick int64, worldSize float32, particles []sim.Particle) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 12+wireParticleSize*len(particles)))

	header := FrameHeader{
		Tick:      uint32(tick),
		Count:     uint32(len(particles)),
		WorldSize: worldSize,
	}
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, err
	}

	for i := range particles {
		p := wireParticle{
			X:    particles[i].Pos.X,
			Y:    particles[i].Pos.Y,
			Z:    particles[i].Pos.Z,
			Type: particles[i].Type,
		}
		if err := binary.Write(buf, binary.LittleEndian, p); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// DecodeFrame parses a binary frame back into a header and particle
// snapshot. Velocity is not part of the wire format and stays zero.
func DecodeFrame(data []byte) (FrameHeader, []sim.Particle, error) {
	reader := bytes.NewReader(data)

	var header FrameHeader
	if err := binary.Read(reader, binary.LittleEndian, &header); err != nil {
		return FrameHeader{}, nil, err
	}

	// The count comes off the wire; size the allocation by what the
	// payload can actually hold.
	if max := uint32(reader.Len() / wireParticleSize); header.Count > max {
		return FrameHeader{}, nil, fmt.Errorf("frame count %d exceeds payload capacity %d", header.Count, max)
	}

	particles := make([]sim.Particle, header.Count)
	for i := range particles {
		var p wireParticle
		if err := binary.Read(reader, binary.LittleEndian, &p); err != nil {
			return FrameHeader{}, nil, err
		}
		particles[i] = sim.Particle{
			Pos:  sim.Vec3{X: p.X, Y: p.Y, Z: p.Z},
			Type: p.Type,
		}
	}

	return header, particles, nil
}
