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

package entropy

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/jhorourke2/cmix/bitstream"
	"github.com/jhorourke2/cmix/util"
)

func roundTrip(t *testing.T, block []byte, level uint) {
	var bs util.BufferStream
	obs, err := bitstream.NewDefaultOutputBitStream(&bs, 16384)

	if err != nil {
		t.Fatalf("Cannot create output bitstream: %v", err)
	}

	pe, err := NewPAQ8HPPredictor(level)

	if err != nil {
		t.Fatalf("Cannot create predictor: %v", err)
	}

	enc, err := NewBinaryEntropyEncoder(obs, pe)

	if err != nil {
		t.Fatalf("Cannot create encoder: %v", err)
	}

	if _, err = enc.Encode(block); err != nil {
		t.Fatalf("Encoding error: %v", err)
	}

	enc.Dispose()

	if _, err = obs.Close(); err != nil {
		t.Fatalf("Cannot close output bitstream: %v", err)
	}

	ibs, err := bitstream.NewDefaultInputBitStream(&bs, 16384)

	if err != nil {
		t.Fatalf("Cannot create input bitstream: %v", err)
	}

	pd, err := NewPAQ8HPPredictor(level)

	if err != nil {
		t.Fatalf("Cannot create predictor: %v", err)
	}

	dec, err := NewBinaryEntropyDecoder(ibs, pd)

	if err != nil {
		t.Fatalf("Cannot create decoder: %v", err)
	}

	decoded := make([]byte, len(block))

	if _, err = dec.Decode(decoded); err != nil {
		t.Fatalf("Decoding error: %v", err)
	}

	dec.Dispose()
	ibs.Close()

	if bytes.Equal(block, decoded) == false {
		for i := range block {
			if block[i] != decoded[i] {
				t.Fatalf("Roundtrip mismatch at byte %v: %v != %v", i, block[i], decoded[i])
			}
		}

		t.Fatalf("Roundtrip mismatch")
	}
}

func TestBinaryEntropyCodecCompressible(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	block := make([]byte, 4096)

	for i := range block {
		block[i] = byte(r.Intn(5))
	}

	roundTrip(t, block, 1)
}

func TestBinaryEntropyCodecRandom(t *testing.T) {
	r := rand.New(rand.NewSource(31415))
	block := make([]byte, 2048)

	for i := range block {
		block[i] = byte(r.Intn(256))
	}

	roundTrip(t, block, 0)
}

func TestBinaryEntropyCodecText(t *testing.T) {
	text := []byte("It was the best of times, it was the worst of times, " +
		"it was the age of wisdom, it was the age of foolishness.\n")
	block := make([]byte, 0, 8192)

	for len(block) < 8192 {
		block = append(block, text...)
	}

	roundTrip(t, block, 1)
}

func TestBinaryEntropyCodecShrinksConstantInput(t *testing.T) {
	block := make([]byte, 8192)

	for i := range block {
		block[i] = 'A'
	}

	var bs util.BufferStream
	obs, err := bitstream.NewDefaultOutputBitStream(&bs, 16384)

	if err != nil {
		t.Fatalf("Cannot create output bitstream: %v", err)
	}

	p, err := NewPAQ8HPPredictor(1)

	if err != nil {
		t.Fatalf("Cannot create predictor: %v", err)
	}

	enc, err := NewBinaryEntropyEncoder(obs, p)

	if err != nil {
		t.Fatalf("Cannot create encoder: %v", err)
	}

	if _, err = enc.Encode(block); err != nil {
		t.Fatalf("Encoding error: %v", err)
	}

	enc.Dispose()

	if _, err = obs.Close(); err != nil {
		t.Fatalf("Cannot close output bitstream: %v", err)
	}

	if written := obs.Written() / 8; written >= uint64(len(block)/2) {
		t.Errorf("A constant block must compress: %v bytes in, %v bytes out", len(block), written)
	}

	roundTrip(t, block, 1)
}

func TestBinaryEntropyCodecSmall(t *testing.T) {
	// blocks below the 64 byte chunking threshold
	roundTrip(t, []byte{}, 0)
	roundTrip(t, []byte{42}, 0)
	roundTrip(t, []byte("abcabcabc"), 0)
}
