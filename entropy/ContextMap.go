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
	"encoding/binary"
	"errors"

	cmix "github.com/jhorourke2/cmix"
)

// A context map maps contexts to bit histories and feeds predictions
// to a mixer. All variants share the same calling shape:
//
//	if bpos == 0 {
//	    for i := 0; i < C; i++ { cm.set(cx[i]) }
//	}
//	cm.mix(m, g)
//
// The variants are:
//   - runContextMap: the history is a count of consecutive identical
//     bytes, 4 bytes per whole byte context, one context.
//   - smallStationaryContextMap: a direct lookup table of 16 bit
//     probabilities adjusted after each bit, one context.
//   - contextMap: hashed contexts mapped to bit history states, used
//     for most of the modeling.

// hashBucket is a 64 byte cache line holding 7 bit history elements.
// Each element has a 2 byte checksum and 7 state bytes organized as a
// small tree over the remaining bits of the current byte:
// bh[][0] covers the 1st bit, bh[][1..2] the 2nd, bh[][3..6] the 3rd.
// bh[][0] doubles as the replacement priority, 0 meaning empty.
// When the context ends on a byte boundary only bh[][0..2] hold
// states; bh[][3..6] hold a run record (count*2+diff, byte, b2, b3).
// last packs the two most recently accessed element indices into its
// two nibbles.
type hashBucket struct {
	chk  [7]uint16
	last uint8
	bh   [7][7]uint8
}

// get finds the element matching checksum ch, inserting into an empty
// slot or replacing the lowest priority element not in the two slot
// recency queue. The found element becomes the queue front.
func (this *hashBucket) get(ch uint16, j int) *[7]uint8 {
	ch += uint16(j)

	if this.chk[this.last&15] == ch {
		return &this.bh[this.last&15]
	}

	b := 0xFFFF
	bi := 0

	for i := 0; i < 7; i++ {
		if this.chk[i] == ch {
			this.last = this.last<<4 | uint8(i)
			return &this.bh[i]
		}

		pri := int(this.bh[i][0])

		if int(this.last&15) != i && int(this.last>>4) != i && pri < b {
			b = pri
			bi = i
		}
	}

	this.last = 0xF0 | uint8(bi)
	this.chk[bi] = ch
	this.bh[bi] = [7]uint8{}
	return &this.bh[bi]
}

// contextMap maps large (hashed) contexts to bit histories with a
// built in run model for the last byte seen in each context.
//
// Histories live in hashBucket cache lines. The buckets are indexed by
// the context extended with 0, 2 or 5 bits of the current byte, so each
// modeled byte costs 3 main memory accesses per context with all other
// accesses staying in the cache line. On a replacement the recency
// queue is reset to hold only the new element so that consecutive
// misses favor LFU replacement.
//
// As an optimization, the elements for contexts extended by 2-7 bits
// are not created until the whole byte context is seen a second time.
// The pending byte is kept in the run record and materialized on the
// next byte boundary.
type contextMap struct {
	c     int          // number of contexts
	sz    uint32       // bucket index mask
	t     []hashBucket // bit histories for bits 0-1, 2-4, 5-7
	cp    []*[7]uint8  // current element per context, nil when absent
	cpOff []int        // state byte offset within the element
	cp0   []*[7]uint8  // element selected at the last bucket switch
	runp  []*[7]uint8  // element holding the current run record
	cxt   []uint32     // whole byte context hashes
	sm    []stateMap
	cn    int // contexts set so far this byte
}

// newContextMap creates a map using about m bytes of memory for c
// whole byte contexts.
func newContextMap(m, c int) (*contextMap, error) {
	if m < 64 {
		return nil, errors.New("The context map size must be at least 64")
	}

	if c < 1 {
		return nil, errors.New("The number of contexts must be at least 1")
	}

	this := &contextMap{}
	this.c = c
	this.sz = uint32(m>>6) - 1
	this.t = make([]hashBucket, m>>6)
	this.cp = make([]*[7]uint8, c)
	this.cpOff = make([]int, c)
	this.cp0 = make([]*[7]uint8, c)
	this.runp = make([]*[7]uint8, c)
	this.cxt = make([]uint32, c)
	this.sm = make([]stateMap, c)

	for i := 0; i < c; i++ {
		this.cp0[i] = &this.t[0].bh[0]
		this.cp[i] = this.cp0[i]
		this.runp[i] = this.cp0[i]
		this.sm[i].init()
	}

	return this, nil
}

// set registers the next whole byte context. The value is permuted,
// not hashed, to spread the distribution.
func (this *contextMap) set(cx uint32) {
	i := uint32(this.cn)
	this.cn++
	cx = cx*123456791 + i
	cx = cx<<16 | cx>>16
	this.cxt[this.cn-1] = cx*987654323 + i
}

// mix updates the bit histories with the last bit and adds the run and
// state predictions for each context to the mixer. The return value is
// the number of contexts with a non empty history.
func (this *contextMap) mix(m *mixer, g *globalContext) int {
	cc := g.c0
	c1 := int(g.b1)
	result := 0

	for i := 0; i < this.cn; i++ {
		row := this.cp[i]
		off := this.cpOff[i]

		if row != nil {
			ns := int(STATE_TABLE[row[off]][g.y])

			if ns >= 204 && g.rnd.next()<<uint((452-ns)>>3) != 0 {
				ns -= 4 // probabilistic attenuation near saturation
			}

			row[off] = uint8(ns)
		}

		// select the state for the new bit position
		if g.bpos > 1 && this.runp[i][3] == 0 {
			row = nil
		} else if g.bpos == 1 || g.bpos == 3 || g.bpos == 6 {
			row = this.cp0[i]
			off = 1 + (cc & 1)
		} else if g.bpos == 4 || g.bpos == 7 {
			row = this.cp0[i]
			off = 3 + (cc & 3)
		} else {
			chk := uint16(this.cxt[i] >> 16)
			row = this.t[(this.cxt[i]+uint32(cc))&this.sz].get(chk, i)
			off = 0
			this.cp0[i] = row

			if g.bpos == 0 {
				if row[3] == 2 {
					// materialize the pending 2-7 bit histories of the
					// byte seen the first time this context occurred
					c := int(row[4]) + 256
					p := this.t[(this.cxt[i]+uint32(c>>6))&this.sz].get(chk, i)
					p[0] = uint8(1 + ((c >> 5) & 1))
					p[p[0]] = uint8(1 + ((c >> 4) & 1))
					p[3+((c>>4)&3)] = uint8(1 + ((c >> 3) & 1))
					p = this.t[(this.cxt[i]+uint32(c>>3))&this.sz].get(chk, i)
					p[0] = uint8(1 + ((c >> 2) & 1))
					p[p[0]] = uint8(1 + ((c >> 1) & 1))
					p[3+((c>>1)&3)] = uint8(1 + (c & 1))
					row[6] = 0
				}

				// update the run record of the previous context
				rp := this.runp[i]
				r0 := rp[3]

				if r0 == 0 {
					r0 = 2
					rp[4] = uint8(c1)
				} else if int(rp[4]) != c1 {
					r0 = 1
					rp[4] = uint8(c1)
				} else if r0 < 254 {
					r0 += 2
				}

				rp[3] = r0
				this.runp[i] = row
			}
		}

		// predict from the last byte seen in this context
		rp := this.runp[i]
		rc := int(rp[3])

		if (int(rp[4])+256)>>uint(8-g.bpos) == cc {
			b := ((int(rp[4])>>uint(7-g.bpos))&1)*2 - 1
			c := int(cmix.Ilog(uint16(rc + 1)))

			if rc&1 != 0 {
				c = c * 15 / 4
			} else {
				c *= 13
			}

			m.add(b * c)
		} else {
			m.add(0)
		}

		// predict from the bit history state
		s := 0

		if row != nil {
			s = int(row[off])
		}

		result += mix2(m, s, &this.sm[i], g)
		this.cp[i] = row
		this.cpOff[i] = off
	}

	if g.bpos == 7 {
		this.cn = 0
	}

	return result
}

// mix2 adds the stretched features derived from bit history state s to
// the mixer and returns 1 if the history is non empty. The thinner
// feature set is selected when cxtfl is cleared.
func mix2(m *mixer, s int, sm *stateMap, g *globalContext) int {
	p1 := sm.p(g, s)
	n0 := 0
	n1 := 0

	if STATE_TABLE[s][2] == 0 {
		n0 = -1
	}

	if STATE_TABLE[s][3] == 0 {
		n1 = -1
	}

	st := cmix.Stretch(p1)

	if g.cxtfl != 0 {
		m.add(st / 4)
		p0 := 4095 - p1
		m.add((p1 - p0) * 3 / 64)
		m.add(st * (n1 - n0) * 3 / 16)
		m.add(((p1 & n0) - (p0 & n1)) / 16)
		m.add(((p0 & n0) - (p1 & n1)) * 7 / 64)

		if s > 0 {
			return 1
		}

		return 0
	}

	m.add(st * 9 / 32)
	m.add(st * (n1 - n0) * 3 / 16)
	p0 := 4095 - p1
	m.add(((p1 & n0) - (p0 & n1)) / 16)
	m.add(((p0 & n0) - (p1 & n1)) * 7 / 64)

	if s > 0 {
		return 1
	}

	return 0
}

// runContextMap maps a context to the next byte and a repeat count.
// The storage is an array of 4 byte elements, each a 2 byte checksum
// followed by the count and the byte. A context searches the 7
// consecutive elements starting at its hashed index. A hit moves the
// whole element to the front of those 7; a miss replaces the lower
// priority of the two back elements.
type runContextMap struct {
	t    []uint8
	n    uint32 // element index mask
	cp   int    // byte offset of the current count/byte pair
	mulc int
}

func newRunContextMap(m, c int) (*runContextMap, error) {
	n := m / 4

	if n < 8 || n&(n-1) != 0 {
		return nil, errors.New("The run context map size must be a power of 2 (and at least 32)")
	}

	this := &runContextMap{}
	// 6 guard elements so a bucket starting at the last index stays in bounds
	this.t = make([]uint8, (n+6)*4)
	this.n = uint32(n - 1)
	this.mulc = c
	this.cp = 2
	return this, nil
}

// lookup returns the byte offset of the element matching the context
// hash, applying the move to front replacement.
func (this *runContextMap) lookup(i uint32) int {
	chk := uint16((i >> 16) ^ i)
	bi := int((i * 7) & this.n)
	off := bi * 4
	j := 0

	for j = 0; j < 7; j++ {
		off = (bi + j) * 4

		if this.t[off+2] == 0 {
			binary.LittleEndian.PutUint16(this.t[off:], chk)
			break
		}

		if binary.LittleEndian.Uint16(this.t[off:]) == chk {
			break
		}
	}

	if j == 0 {
		return off
	}

	var elem [4]uint8

	if j == 7 {
		j--
		off = (bi + j) * 4

		if this.t[off+2] > this.t[off-4+2] {
			j--
			off -= 4
		}

		binary.LittleEndian.PutUint16(elem[:], chk)
	} else {
		copy(elem[:], this.t[off:off+4])
	}

	base := bi * 4
	copy(this.t[base+4:base+4+j*4], this.t[base:base+j*4])
	copy(this.t[base:base+4], elem[:])
	return base
}

// set updates the run count for the previous context and selects the
// element for context cx.
func (this *runContextMap) set(cx uint32, g *globalContext) {
	b1 := uint8(g.b1)

	if this.t[this.cp] == 0 || this.t[this.cp+1] != b1 {
		this.t[this.cp] = 1
		this.t[this.cp+1] = b1
	} else if this.t[this.cp] < 255 {
		this.t[this.cp]++
	}

	this.cp = this.lookup(cx) + 2
}

func (this *runContextMap) p(g *globalContext) int {
	if (int(this.t[this.cp+1])+256)>>uint(8-g.bpos) != g.c0 {
		return 0
	}

	b := ((int(this.t[this.cp+1])>>uint(7-g.bpos))&1)*2 - 1
	return b * int(cmix.Ilog(uint16(this.t[this.cp])+1)) * this.mulc
}

func (this *runContextMap) mix(m *mixer, g *globalContext) int {
	m.add(this.p(g))

	if this.t[this.cp] != 0 {
		return 1
	}

	return 0
}

// smallStationaryContextMap is a direct lookup table of slowly
// adapting 16 bit probabilities, for contexts below m/512.
type smallStationaryContextMap struct {
	t    []uint16
	cxt  int
	cp   int
	mulc int
}

func newSmallStationaryContextMap(m, c int) (*smallStationaryContextMap, error) {
	n := m / 2

	if n <= 0 || n&(n-1) != 0 {
		return nil, errors.New("The small stationary context map size must be a power of 2")
	}

	this := &smallStationaryContextMap{}
	this.t = make([]uint16, n)
	this.mulc = c

	for i := range this.t {
		this.t[i] = 32768
	}

	return this, nil
}

func (this *smallStationaryContextMap) set(cx uint32) {
	this.cxt = int((cx * 256) & uint32(len(this.t)-256))
}

func (this *smallStationaryContextMap) mix(m *mixer, g *globalContext) {
	q := int(this.t[this.cp])

	if g.pos < 4000000 {
		this.t[this.cp] = uint16(q + (((g.y<<16)-q+(1<<8))>>9))
	} else {
		this.t[this.cp] = uint16(q + (((g.y<<16)-q+(1<<9))>>10))
	}

	this.cp = this.cxt + g.c0
	m.add(cmix.Stretch(int(this.t[this.cp])>>4) * this.mulc / 32)
}
