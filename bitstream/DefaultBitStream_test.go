/*
Copyright 2011-2017 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package bitstream

import (
	"math/rand"
	"testing"

	"github.com/jhorourke2/cmix/util"
)

func TestBitStreamAligned(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	values := make([]uint64, 256)

	for i := range values {
		values[i] = uint64(r.Uint32())
	}

	var bs util.BufferStream
	obs, err := NewDefaultOutputBitStream(&bs, 16384)

	if err != nil {
		t.Fatalf("Cannot create output bitstream: %v", err)
	}

	for i := range values {
		obs.WriteBits(values[i], 32)
	}

	if obs.Written() != uint64(len(values)*32) {
		t.Errorf("Written() = %v, expected %v", obs.Written(), len(values)*32)
	}

	if _, err = obs.Close(); err != nil {
		t.Fatalf("Cannot close output bitstream: %v", err)
	}

	ibs, err := NewDefaultInputBitStream(&bs, 16384)

	if err != nil {
		t.Fatalf("Cannot create input bitstream: %v", err)
	}

	for i := range values {
		if v := ibs.ReadBits(32); v != values[i] {
			t.Fatalf("Value %v: read %v, expected %v", i, v, values[i])
		}
	}

	if ibs.Read() != uint64(len(values)*32) {
		t.Errorf("Read() = %v, expected %v", ibs.Read(), len(values)*32)
	}

	ibs.Close()
}

func TestBitStreamMisaligned(t *testing.T) {
	r := rand.New(rand.NewSource(9))
	counts := make([]uint, 500)
	values := make([]uint64, len(counts))

	for i := range counts {
		counts[i] = uint(1 + r.Intn(64))
		values[i] = r.Uint64()

		if counts[i] < 64 {
			values[i] &= (uint64(1) << counts[i]) - 1
		}
	}

	var bs util.BufferStream
	obs, err := NewDefaultOutputBitStream(&bs, 16384)

	if err != nil {
		t.Fatalf("Cannot create output bitstream: %v", err)
	}

	for i := range values {
		obs.WriteBits(values[i], counts[i])
	}

	if _, err = obs.Close(); err != nil {
		t.Fatalf("Cannot close output bitstream: %v", err)
	}

	ibs, err := NewDefaultInputBitStream(&bs, 16384)

	if err != nil {
		t.Fatalf("Cannot create input bitstream: %v", err)
	}

	for i := range values {
		if v := ibs.ReadBits(counts[i]); v != values[i] {
			t.Fatalf("Value %v (%v bits): read %v, expected %v", i, counts[i], v, values[i])
		}
	}

	ibs.Close()
}

func TestBitStreamBits(t *testing.T) {
	bits := []int{1, 0, 1, 1, 0, 0, 1, 0, 1, 1, 1, 0, 0, 0, 1}

	var bs util.BufferStream
	obs, err := NewDefaultOutputBitStream(&bs, 16384)

	if err != nil {
		t.Fatalf("Cannot create output bitstream: %v", err)
	}

	for _, b := range bits {
		obs.WriteBit(b)
	}

	if _, err = obs.Close(); err != nil {
		t.Fatalf("Cannot close output bitstream: %v", err)
	}

	ibs, err := NewDefaultInputBitStream(&bs, 16384)

	if err != nil {
		t.Fatalf("Cannot create input bitstream: %v", err)
	}

	for i, b := range bits {
		if v := ibs.ReadBit(); v != b {
			t.Fatalf("Bit %v: read %v, expected %v", i, v, b)
		}
	}

	ibs.Close()
}

func TestBitStreamArray(t *testing.T) {
	r := rand.New(rand.NewSource(1234))
	data := make([]byte, 3000)

	for i := range data {
		data[i] = byte(r.Intn(256))
	}

	// with a misaligning prefix and without
	for _, prefix := range []uint{0, 5} {
		var bs util.BufferStream
		obs, err := NewDefaultOutputBitStream(&bs, 16384)

		if err != nil {
			t.Fatalf("Cannot create output bitstream: %v", err)
		}

		if prefix > 0 {
			obs.WriteBits(0x15, prefix)
		}

		obs.WriteArray(data, uint(8*len(data)))

		if _, err = obs.Close(); err != nil {
			t.Fatalf("Cannot close output bitstream: %v", err)
		}

		ibs, err := NewDefaultInputBitStream(&bs, 16384)

		if err != nil {
			t.Fatalf("Cannot create input bitstream: %v", err)
		}

		if prefix > 0 {
			if v := ibs.ReadBits(prefix); v != 0x15 {
				t.Fatalf("Prefix read %v, expected %v", v, 0x15)
			}
		}

		decoded := make([]byte, len(data))
		ibs.ReadArray(decoded, uint(8*len(data)))

		for i := range data {
			if decoded[i] != data[i] {
				t.Fatalf("Prefix %v, byte %v: read %v, expected %v", prefix, i, decoded[i], data[i])
			}
		}

		ibs.Close()
	}
}

func TestBitStreamInvalidParams(t *testing.T) {
	var bs util.BufferStream

	if _, err := NewDefaultOutputBitStream(nil, 16384); err == nil {
		t.Errorf("A null stream must be rejected")
	}

	if _, err := NewDefaultOutputBitStream(&bs, 100); err == nil {
		t.Errorf("A tiny buffer must be rejected")
	}

	if _, err := NewDefaultInputBitStream(&bs, 1023); err == nil {
		t.Errorf("A misaligned buffer size must be rejected")
	}
}
