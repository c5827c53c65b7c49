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
	"errors"

	cmix "github.com/jhorourke2/cmix"
)

// adaptiveProbMap maps a probability and a context into a new
// probability that the next bit will be 1. After each guess it
// updates its state to improve future guesses. The n contexts each
// own 33 probabilities sampled on the stretched scale; a prediction
// interpolates between the two nearest samples.
type adaptiveProbMap struct {
	index int      // last prob, context
	data  []uint16 // prob, context -> prob
}

func newAdaptiveProbMap(n int) (*adaptiveProbMap, error) {
	if n < 1 {
		return nil, errors.New("The number of contexts must be at least 1")
	}

	this := &adaptiveProbMap{}
	this.data = make([]uint16, n*33)

	for j := 0; j < 33; j++ {
		this.data[j] = uint16(cmix.Squash((j-16)*128) * 16)
	}

	for i := 1; i < n; i++ {
		copy(this.data[i*33:(i+1)*33], this.data[0:33])
	}

	return this, nil
}

// p refines prediction pr given context cxt, training the previously
// selected pair of samples against bit y at the given rate.
func (this *adaptiveProbMap) p(y, pr, cxt, rate int) int {
	d := cmix.Stretch(pr)
	g := (y << 16) + (y << uint(rate)) - y - y
	this.data[this.index] += uint16((g - int(this.data[this.index])) >> uint(rate))
	this.data[this.index+1] += uint16((g - int(this.data[this.index+1])) >> uint(rate))
	w := d & 127
	this.index = ((d + 2048) >> 7) + cxt*33
	return (int(this.data[this.index])*(128-w) + int(this.data[this.index+1])*w) >> 11
}
