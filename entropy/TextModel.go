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

// wordModel predicts text from whole word contexts. A word is a run of
// lowercase ASCII letters, bytes above 127 (unless preceded by byte
// 12) and the escape codes 6 and 8 used by dictionary
// preprocessed text; uppercase ASCII letters end a word. The hashes of
// the last five words, line positions and several order 2-4 byte
// contexts feed one large context map.
type wordModel struct {
	word0 uint32
	word1 uint32
	word2 uint32
	word3 uint32
	word4 uint32
	nl    int // position of the last newline
	nl1   int // position of the newline before that
	t1    [256]uint32
	t2    [0x10000]uint16
	cm    *contextMap
}

func newWordModel(size int) (*wordModel, error) {
	this := &wordModel{}
	this.nl = -2
	this.nl1 = -3
	var err error

	if this.cm, err = newContextMap(size, 46); err != nil {
		return nil, err
	}

	return this, nil
}

func (this *wordModel) mix(m *mixer, g *globalContext) {
	if g.bpos == 0 {
		c := g.b1
		f := uint32(0)

		if g.spaces&0x80000000 != 0 {
			g.spacecount--
		}

		if g.words&0x80000000 != 0 {
			g.wordcount--
		}

		g.spaces *= 2
		g.words *= 2

		if c-'a' <= 'z'-'a' || c == 8 || c == 6 || (c > 127 && g.b2 != 12) {
			g.words |= 1
			g.wordcount++
			this.word0 = this.word0*263*8 + c
		} else {
			if c == 32 || c == 10 {
				g.spaces |= 1
				g.spacecount++

				if c == 10 {
					this.nl1 = this.nl
					this.nl = g.pos - 1
				}
			}

			if this.word0 != 0 {
				this.word4 = this.word3 * 43
				this.word3 = this.word2 * 47
				this.word2 = this.word1 * 53
				this.word1 = this.word0 * 83
				this.word0 = 0

				if c == '.' || c == 'O' || c == '}'-'{'+'P' {
					f = 1
					g.spafdo = 0
				} else {
					g.spafdo++

					if g.spafdo > 63 {
						g.spafdo = 63
					}
				}
			}
		}

		h := this.word0*271 + c
		this.cm.set(this.word0)
		this.cm.set(h + this.word1)
		this.cm.set(this.word0*91 + this.word1*89)
		this.cm.set(h + this.word1*79 + this.word2*71)
		this.cm.set(h + this.word2)
		this.cm.set(h + this.word3)
		this.cm.set(h + this.word4)
		this.cm.set(h + this.word1*73 + this.word3*61)
		this.cm.set(h + this.word2*67 + this.word3*59)

		if f != 0 {
			this.word4 = this.word3 * 31
			this.word3 = this.word2 * 37
			this.word2 = this.word1 * 41
			this.word1 = '.'
		}

		this.cm.set(g.b3 | g.b4<<8)

		if g.w4&3 == 1 {
			this.cm.set(g.spafdo * 8)
		} else {
			this.cm.set(0)
		}

		g.col = uint32(imin(31, g.pos-this.nl))

		if g.col <= 2 {
			if g.col == 2 {
				g.frstchar = uint32(imin(int(c), 96))
			} else {
				g.frstchar = 0
			}
		}

		if g.frstchar == '[' && c == 32 {
			if g.b3 == ']' || g.b4 == ']' {
				g.frstchar = 96
			}
		}

		this.cm.set(g.frstchar<<11 | c)
		above := uint32(g.buf[(this.nl1+int(g.col))&g.bufMask])
		this.cm.set(g.col<<16 | c<<8 | above)
		this.cm.set(g.col<<8 | c)

		if c == 32 {
			this.cm.set(g.col)
		} else {
			this.cm.set(0)
		}

		h = g.wordcount*64 + g.spacecount
		this.cm.set(g.spaces & 0x7FFF)
		this.cm.set(g.frstchar << 7)
		this.cm.set(g.spaces & 0xFF)
		this.cm.set(c*64 + g.spacecount/2)
		this.cm.set((c << 13) + h)
		this.cm.set(h)

		d := g.c4 & 0xFFFF
		h = g.w4 << 6
		this.cm.set(c + (h & 0xFFFFFF00))
		this.cm.set(c + (h & 0x00FFFF00))
		this.cm.set(c + (h & 0x0000FF00))
		h <<= 6
		this.cm.set(d + (h & 0xFFFF0000))
		this.cm.set(d + (h & 0x00FF0000))
		h <<= 6
		f = g.c4 & 0xFFFFFF
		this.cm.set(f + (h & 0xFF000000))

		this.t2[f>>8] = this.t2[f>>8]<<8 | uint16(c)
		this.t1[d>>8] = this.t1[d>>8]<<8 | c
		t := c | this.t1[c]<<8
		this.cm.set(t & 0xFFFF)
		this.cm.set(t & 0xFFFFFF)
		this.cm.set(t)
		this.cm.set(t & 0xFF00)
		t = d | uint32(this.t2[d])<<16
		this.cm.set(t & 0xFFFFFF)
		this.cm.set(t)

		this.cm.set(g.x4 & 0x00FF00FF)
		this.cm.set(g.x4 & 0xFF0000FF)
		this.cm.set(g.x4 & 0x00FFFF00)
		this.cm.set(g.c4 & 0xFF00FF00)
		this.cm.set(c + g.b5*256 + (1 << 17))
		this.cm.set(c + g.b6*256 + (2 << 17))
		this.cm.set(g.b4 + g.b8*256 + (4 << 17))
		this.cm.set(d)
		this.cm.set(g.w4 & 15)
		this.cm.set(g.f4)
		this.cm.set((g.w4&63)*128 + (5 << 17))
		this.cm.set(d<<9 | g.frstchar)
		this.cm.set((g.f4&0xFFFF)<<11 | g.frstchar)
	}

	this.cm.mix(m, g)
}

// recordModel models fixed width records with the gap to the previous
// occurrence of the last byte and byte pair, plus a set of low order
// contexts mixed with the thin feature set.
type recordModel struct {
	cpos1 [256]int
	wpos1 [0x10000]int
	cm    *contextMap
	cn    *contextMap
	co    *contextMap
	cp    *contextMap
	cq    *contextMap
}

func newRecordModel() (*recordModel, error) {
	this := &recordModel{}
	var err error

	if this.cm, err = newContextMap(32768/4, 2); err != nil {
		return nil, err
	}

	if this.cn, err = newContextMap(32768/2, 5); err != nil {
		return nil, err
	}

	if this.co, err = newContextMap(32768, 4); err != nil {
		return nil, err
	}

	if this.cp, err = newContextMap(32768*2, 3); err != nil {
		return nil, err
	}

	if this.cq, err = newContextMap(32768*4, 3); err != nil {
		return nil, err
	}

	return this, nil
}

func (this *recordModel) mix(m *mixer, g *globalContext) {
	if g.bpos == 0 {
		c := int(g.b1)
		w := int(g.b2)<<8 | c
		d := w & 0xF0FF
		e := g.c4 & 0xFFFFFF

		this.cm.set(uint32(c<<8 | imin(255, g.pos-this.cpos1[c])/4))
		this.cm.set(uint32(w<<9) | uint32(cmix.Llog(uint32(g.pos-this.wpos1[w]))>>2))

		this.cn.set(uint32(w))
		this.cn.set(uint32(d << 8))
		this.cn.set(uint32(c << 16))
		this.cn.set((g.f4 & 0xFFFF) << 3)
		col := g.pos & 3
		this.cn.set(uint32(col | 2<<12))

		this.co.set(uint32(c))
		this.co.set(uint32(w << 8))
		this.co.set(g.w5 & 0x3FFFF)
		this.co.set(e << 3)

		this.cp.set(uint32(d))
		this.cp.set(uint32(c << 8))
		this.cp.set(uint32(w << 16))

		this.cq.set(uint32(w << 3))
		this.cq.set(uint32(c << 19))
		this.cq.set(e)

		this.cpos1[c] = g.pos
		this.wpos1[w] = g.pos
	}

	this.co.mix(m, g)
	this.cp.mix(m, g)
	g.cxtfl = 0
	this.cm.mix(m, g)
	this.cn.mix(m, g)
	this.cq.mix(m, g)
	g.cxtfl = 3
}

// sparseModel models contexts with gaps: single skipped bytes, masked
// word and punctuation histories, and a few direct stationary maps.
type sparseModel struct {
	cn   *contextMap
	scm1 *smallStationaryContextMap
	scm2 *smallStationaryContextMap
	scm3 *smallStationaryContextMap
	scm4 *smallStationaryContextMap
	scm5 *smallStationaryContextMap
	scm6 *smallStationaryContextMap
	scm7 *smallStationaryContextMap
	scm8 *smallStationaryContextMap
	scm9 *smallStationaryContextMap
	scma *smallStationaryContextMap
}

func newSparseModel(size int) (*sparseModel, error) {
	this := &sparseModel{}
	var err error

	if this.cn, err = newContextMap(size, 5); err != nil {
		return nil, err
	}

	if this.scm1, err = newSmallStationaryContextMap(0x20000, 17); err != nil {
		return nil, err
	}

	if this.scm2, err = newSmallStationaryContextMap(0x20000, 12); err != nil {
		return nil, err
	}

	if this.scm3, err = newSmallStationaryContextMap(0x20000, 12); err != nil {
		return nil, err
	}

	if this.scm4, err = newSmallStationaryContextMap(0x20000, 13); err != nil {
		return nil, err
	}

	if this.scm5, err = newSmallStationaryContextMap(0x10000, 12); err != nil {
		return nil, err
	}

	if this.scm6, err = newSmallStationaryContextMap(0x20000, 12); err != nil {
		return nil, err
	}

	if this.scm7, err = newSmallStationaryContextMap(0x2000, 12); err != nil {
		return nil, err
	}

	if this.scm8, err = newSmallStationaryContextMap(0x8000, 13); err != nil {
		return nil, err
	}

	if this.scm9, err = newSmallStationaryContextMap(0x1000, 12); err != nil {
		return nil, err
	}

	if this.scma, err = newSmallStationaryContextMap(0x10000, 16); err != nil {
		return nil, err
	}

	return this, nil
}

func (this *sparseModel) mix(m *mixer, g *globalContext) {
	if g.bpos == 0 {
		this.cn.set(g.words & 0x1FFFF)
		this.cn.set((g.f4 & 0x000FFFFF) * 7)
		this.cn.set((g.x4 & 0xF8F8F8F8) + 3)
		this.cn.set((g.tt & 0x00000FFF) * 9)
		this.cn.set((g.x4 & 0x80F0F0FF) + 6)

		this.scm1.set(g.b1)
		this.scm2.set(g.b2)
		this.scm3.set(g.b3)
		this.scm4.set(g.b4)
		this.scm5.set(g.words & 127)
		this.scm6.set((g.words&12)*16 + (g.w4&12)*4 + (g.b1 >> 4))

		this.scm7.set(g.w4 & 15)

		if g.w4&3 == 1 {
			this.scm8.set(g.spafdo)
		} else {
			this.scm8.set(0)
		}

		if g.b1 == 32 {
			this.scm9.set(g.col)
		} else {
			this.scm9.set(0)
		}

		this.scma.set(g.frstchar)
	}

	this.cn.mix(m, g)
	this.scm1.mix(m, g)
	this.scm2.mix(m, g)
	this.scm3.mix(m, g)
	this.scm4.mix(m, g)
	this.scm5.mix(m, g)
	this.scm6.mix(m, g)
	this.scm7.mix(m, g)
	this.scm8.mix(m, g)
	this.scm9.mix(m, g)
	this.scma.mix(m, g)
}
