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
	"math/rand"
	"testing"
)

func feedBytes(p *PAQ8HPPredictor, data []byte) {
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			p.Update((b >> uint(i)) & 1)
		}
	}
}

func TestPredictorLevel(t *testing.T) {
	if _, err := NewPAQ8HPPredictor(10); err == nil {
		t.Errorf("Level 10 must be rejected")
	}

	if _, err := NewPAQ8HPPredictor(0); err != nil {
		t.Errorf("Level 0 must be accepted, got %v", err)
	}
}

func TestPredictorBounds(t *testing.T) {
	p, err := NewPAQ8HPPredictor(1)

	if err != nil {
		t.Fatalf("Cannot create predictor: %v", err)
	}

	r := rand.New(rand.NewSource(0x1234))

	for i := 0; i < 50000; i++ {
		bit := byte(r.Intn(2))
		p.Update(bit)
		pr := p.Get()

		if pr < 0 || pr > 4095 {
			t.Fatalf("Prediction %v out of [0..4095] after %v bits", pr, i+1)
		}
	}
}

func TestPredictorDeterminism(t *testing.T) {
	p1, err1 := NewPAQ8HPPredictor(1)
	p2, err2 := NewPAQ8HPPredictor(1)

	if err1 != nil || err2 != nil {
		t.Fatalf("Cannot create predictors: %v %v", err1, err2)
	}

	r := rand.New(rand.NewSource(0xC0DE))

	for i := 0; i < 30000; i++ {
		bit := byte(r.Intn(2))
		p1.Update(bit)
		p2.Update(bit)

		if p1.Get() != p2.Get() {
			t.Fatalf("Predictions diverge after %v identical bits: %v != %v", i+1, p1.Get(), p2.Get())
		}
	}
}

func TestPredictorLearnsConstant(t *testing.T) {
	p0, err := NewPAQ8HPPredictor(1)

	if err != nil {
		t.Fatalf("Cannot create predictor: %v", err)
	}

	for i := 0; i < 40000; i++ {
		p0.Update(0)
	}

	if pr := p0.Get(); pr >= 2048 {
		t.Errorf("After a long run of zeros the prediction must favor 0, got %v", pr)
	}

	p1, _ := NewPAQ8HPPredictor(1)

	for i := 0; i < 40000; i++ {
		p1.Update(1)
	}

	if pr := p1.Get(); pr <= 2048 {
		t.Errorf("After a long run of ones the prediction must favor 1, got %v", pr)
	}
}

func TestPredictorTextModels(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping text model test in short mode")
	}

	// level 4 enables the word, sparse and record models
	p, err := NewPAQ8HPPredictor(4)

	if err != nil {
		t.Fatalf("Cannot create predictor: %v", err)
	}

	text := []byte("The quick brown fox jumps over the lazy dog. " +
		"Pack my box with five dozen liquor jugs.\n")
	data := make([]byte, 0, 16384)

	for len(data) < 16384 {
		data = append(data, text...)
	}

	feedBytes(p, data)

	if pr := p.Get(); pr < 0 || pr > 4095 {
		t.Fatalf("Prediction %v out of [0..4095]", pr)
	}

	// same input, same predictions
	q, _ := NewPAQ8HPPredictor(4)
	feedBytes(q, data)

	if p.Get() != q.Get() {
		t.Errorf("Predictions diverge on identical text: %v != %v", p.Get(), q.Get())
	}
}

func TestPredictorLevelsDiverge(t *testing.T) {
	p1, err1 := NewPAQ8HPPredictor(0)
	p2, err2 := NewPAQ8HPPredictor(4)

	if err1 != nil || err2 != nil {
		t.Fatalf("Cannot create predictors: %v %v", err1, err2)
	}

	text := []byte("Higher levels enable more models and more memory, " +
		"so their predictions drift apart on the same input.\n")
	data := make([]byte, 0, 4096)

	for len(data) < 4096 {
		data = append(data, text...)
	}

	diverged := false

	for _, b := range data {
		for i := 7; i >= 0; i-- {
			bit := (b >> uint(i)) & 1
			p1.Update(bit)
			p2.Update(bit)

			if p1.Get() != p2.Get() {
				diverged = true
			}
		}
	}

	if diverged == false {
		t.Errorf("Levels 0 and 4 never diverge on %v bytes of text", len(data))
	}
}

func TestByteModel(t *testing.T) {
	if _, err := NewByteModel(11); err == nil {
		t.Errorf("Invalid level must be rejected")
	}

	bm, err := NewByteModel(1)

	if err != nil {
		t.Fatalf("Cannot create model: %v", err)
	}

	p, _ := NewPAQ8HPPredictor(1)
	r := rand.New(rand.NewSource(77))

	for i := 0; i < 2000; i++ {
		b := byte(r.Intn(256))
		bm.ByteUpdate(b)
		feedBytes(p, []byte{b})

		f := bm.Predict()

		if f <= 0 || f >= 1 {
			t.Fatalf("Predict() = %v, must be in (0, 1)", f)
		}

		if exp := float32(1+p.Get()) / 4097; f != exp {
			t.Fatalf("ByteUpdate diverges from bit feeding after %v bytes: %v != %v", i+1, f, exp)
		}
	}

	// Perceive must accept any non zero value as a one bit
	bm.Perceive(1)
	bm.Perceive(0)
	bm.Perceive(42)

	if f := bm.Predict(); f <= 0 || f >= 1 {
		t.Fatalf("Predict() = %v, must be in (0, 1)", f)
	}
}

func TestStateTable(t *testing.T) {
	// the start state must move somewhere on both bits
	if STATE_TABLE[0][0] == 0 || STATE_TABLE[0][1] == 0 {
		t.Errorf("The start state must not be absorbing")
	}

	// the trailing unused states stay zeroed
	for s := 253; s < 256; s++ {
		for j := 0; j < 4; j++ {
			if STATE_TABLE[s][j] != 0 {
				t.Errorf("State %v must be empty", s)
			}
		}
	}
}
