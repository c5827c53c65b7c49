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

const MATCH_MAX_LEN = 2047

// matchModel finds the longest context match in the history buffer and
// predicts the bits of the byte that followed it. A rolling hash of the
// recent bytes selects the candidate position; once a match is found it
// is extended one byte per boundary until the prediction fails.
type matchModel struct {
	t      []int32 // context hash -> last position
	mask   uint32
	h      uint32 // rolling hash
	ptr    int    // next byte of the match, if any
	length int    // current match length, 0 if none
	result int
}

func newMatchModel(size int) *matchModel {
	this := &matchModel{}
	this.t = make([]int32, size)
	this.mask = uint32(size - 1)
	return this
}

// mix adds the match predictions to the mixer and returns the match
// length at the last byte boundary.
func (this *matchModel) mix(m *mixer, g *globalContext) int {
	if g.bpos == 0 {
		this.h = (this.h*887*8 + g.b1 + 1) & this.mask

		if this.length != 0 {
			this.length++
			this.ptr++
		} else {
			this.ptr = int(this.t[this.h])

			if this.ptr != 0 && g.pos-this.ptr < len(g.buf) {
				for g.bufAt(this.length+1) == g.bufIdx(this.ptr-this.length-1) && this.length < MATCH_MAX_LEN {
					this.length++
				}
			}
		}

		this.t[this.h] = int32(g.pos)
		this.result = this.length
	}

	if this.length > MATCH_MAX_LEN {
		this.length = MATCH_MAX_LEN
	}

	sgn := 0

	if this.length != 0 && int(g.b1) == g.bufIdx(this.ptr-1) && g.c0 == (g.bufIdx(this.ptr)+256)>>uint(8-g.bpos) {
		if (g.bufIdx(this.ptr)>>uint(7-g.bpos))&1 != 0 {
			sgn = 8
		} else {
			sgn = -8
		}
	} else {
		sgn = 0
		this.length = 0
	}

	m.add(sgn * int(cmix.Ilog(uint16(this.length))))
	m.add(sgn * 8 * imin(this.length, 32))
	return this.result
}
