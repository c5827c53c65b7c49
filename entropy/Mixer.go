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
	cmix "github.com/jhorourke2/cmix"
)

// mixer combines the model predictions using m weight vectors of n
// inputs each, of which up to s may be selected per bit. If s > 1 the
// s dot products are themselves combined by a second layer mixer
// (with parameters s, 1, 1). The inputs are stretched probabilities,
// nominally +-256 to +-2K.
//
// Usage per bit:
//   update(y) trains the selected weight vectors against the last bit.
//   add(x) inputs a prediction (up to n times).
//   set(cx, range) selects cx as one of 'range' weight vectors, called
//     up to s times such that the total of the ranges is <= m.
//   p() returns the mixed prediction as a 12 bit number (0 to 4095).
type mixer struct {
	n    int     // inputs per weight vector, multiple of 8
	m    int     // number of weight vectors
	s    int     // number of context sets
	wx   []int16 // m*n weights
	tx   []int16 // n inputs from add()
	nx   int     // inputs written so far
	cxt  []int   // s selected weight vector indices
	ncxt int
	base int
	pr   []int  // last outputs, scaled 12 bits
	mp   *mixer // second layer, nil when s == 1
}

// dotProduct returns the dot product t*w over n elements, n rounded up
// to a multiple of 8, with each pair of terms scaled down by 8 bits.
func dotProduct(t, w []int16, n int) int32 {
	sum := int32(0)
	n = (n + 7) & -8

	for i := 0; i < n; i += 2 {
		sum += (int32(t[i])*int32(w[i]) + int32(t[i+1])*int32(w[i+1])) >> 8
	}

	return sum
}

// trainWeights adjusts w[0..n) given inputs t[0..n) and a 16 bit scaled
// error. Each weight moves by t[i]*err rounded half up, clamped to
// int16 range. n is rounded up to a multiple of 8.
func trainWeights(t, w []int16, n int, err int32) {
	n = (n + 7) & -8

	for i := 0; i < n; i++ {
		wt := int32(w[i]) + ((((int32(t[i])*err*2)>>16)+1)>>1)

		if wt < -32768 {
			wt = -32768
		}

		if wt > 32767 {
			wt = 32767
		}

		w[i] = int16(wt)
	}
}

func newMixer(n, m, s, w int) *mixer {
	this := &mixer{}
	this.n = (n + 7) & -8
	this.m = m
	this.s = s
	this.wx = make([]int16, this.n*m)
	this.tx = make([]int16, this.n)
	this.cxt = make([]int, s)
	this.pr = make([]int, s)

	for i := 0; i < s; i++ {
		this.pr[i] = 2048
	}

	if w != 0 {
		for i := range this.wx {
			this.wx[i] = int16(w)
		}
	}

	if s > 1 {
		this.mp = newMixer(s, 1, 1, 0x7FFF)
	}

	return this
}

// update adjusts the selected weight vectors to reduce the coding cost
// of the last prediction given the observed bit.
func (this *mixer) update(y int) {
	for i := 0; i < this.ncxt; i++ {
		err := int32((y<<12)-this.pr[i]) * 7
		trainWeights(this.tx, this.wx[this.cxt[i]*this.n:], this.nx, err)
	}

	this.nx = 0
	this.base = 0
	this.ncxt = 0
}

// update2 trains the single weight vector of a second layer mixer. It
// runs before the current bit's inputs are pushed, so it trains against
// the previous bit's inputs.
func (this *mixer) update2(y int) {
	trainWeights(this.tx, this.wx, this.nx, int32((y<<12)-this.base)*3/2)
	this.nx = 0
}

func (this *mixer) add(x int) {
	this.tx[this.nx] = int16(x)
	this.nx++
}

// mul rescales the input slot at the current write position by x/4 and
// advances. Used to re-weight inputs after rewinding nx.
func (this *mixer) mul(x int) {
	z := int(this.tx[this.nx])
	z = z * x / 4
	this.tx[this.nx] = int16(z)
	this.nx++
}

func (this *mixer) set(cx, rng int) {
	this.cxt[this.ncxt] = this.base + cx
	this.ncxt++
	this.base += rng
}

// p returns the prediction for the next bit as a 12 bit number.
func (this *mixer) p(y int) int {
	for this.nx&7 != 0 {
		this.tx[this.nx] = 0 // pad
		this.nx++
	}

	if this.mp != nil {
		this.mp.update2(y)

		for i := 0; i < this.ncxt; i++ {
			dp := dotProduct(this.tx, this.wx[this.cxt[i]*this.n:], this.nx)
			dp = (dp * 9) >> 9
			this.pr[i] = cmix.Squash(int(dp))
			this.mp.add(int(dp))
		}

		return this.mp.p(y)
	}

	// single context set: the scaled dot product doubles as a leaked
	// secondary output through base
	z := dotProduct(this.tx, this.wx, this.nx)
	this.base = cmix.Squash(int((z * 15) >> 13))
	return cmix.Squash(int(z >> 9))
}
