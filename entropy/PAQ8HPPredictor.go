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
	"fmt"

	cmix "github.com/jhorourke2/cmix"
)

// PAQ8HPPredictor is a bit level context mixing predictor tuned for
// text. For each bit it
//   - updates the shared byte/word context registers,
//   - collects predictions from a hashed context model, three run
//     models, a match model and (above level 3) word, sparse and
//     record models,
//   - mixes them with a gated two layer neural network,
//   - refines the mix through a cascade of six adaptive probability
//     maps keyed on the recent prediction failure history.
//
// The level parameter (0..9) selects the memory footprint. With
// mem = 64 KB << level, the level dependent model tables take about
// 36*mem bytes (69*mem from level 4, with the text models) plus an
// 8*mem history buffer, on top of about 32 MB of fixed size mixer
// weights and APM tables.
type PAQ8HPPredictor struct {
	g   globalContext
	cm  *contextModel
	a1  *adaptiveProbMap
	a2  *adaptiveProbMap
	a3  *adaptiveProbMap
	a4  *adaptiveProbMap
	a5  *adaptiveProbMap
	a6  *adaptiveProbMap
	pr  int // next prediction, 12 bits
}

func imin(a, b int) int {
	if a < b {
		return a
	}

	return b
}

// multipliers for the rolling order-1..13 context hashes
var primes = [14]uint32{0, 257, 251, 241, 239, 233, 229, 227, 223, 211, 199, 197, 193, 191}

// word/punctuation class of a byte given its high nibble
var wrtMpw = [16]uint32{3, 3, 3, 2, 2, 2, 1, 1, 1, 1, 1, 1, 1, 0, 0, 0}

// text type class of a byte given its high nibble
var wrtMtt = [16]uint32{0, 0, 1, 2, 3, 4, 5, 5, 6, 6, 6, 6, 6, 7, 7, 7}

// penalties indexed by pairs of recent fail bits
var tri = [4]int{0, 4, 3, 7}
var trj = [4]int{0, 6, 6, 12}

// globalContext holds the shared state every model reads: the history
// buffer, the bit position, the partially decoded byte and a set of
// rolling registers classifying the recent bytes. It is updated once
// per bit before the models run.
type globalContext struct {
	buf     []uint8
	bufMask int
	pos     int // number of whole bytes in buf
	bpos    int // bits of the current byte seen so far
	c0      int // current byte with a leading one bit
	y       int // last coded bit
	b1      uint32
	b2      uint32
	b3      uint32
	b4      uint32
	b5      uint32
	b6      uint32
	b7      uint32
	b8      uint32
	c4      uint32 // last 4 whole bytes
	x4      uint32 // last 4 bytes with punctuation flushes
	x5      uint32 // last bytes, punctuation pushed twice
	w4      uint32 // word classes of the last 16 bytes, 2 bits each
	w5      uint32
	f4      uint32 // high nibbles of the last 8 bytes
	tt      uint32 // text type classes, 3 bits each
	order   int
	cxtfl   int // selects the wide or thin history feature set

	// state map learning rate, coarser as the input grows
	smShft uint
	smAdd  int
	smAddY int

	col        uint32
	frstchar   uint32
	spafdo     uint32
	spaces     uint32
	spacecount uint32
	words      uint32
	wordcount  uint32

	fails     uint32
	failz     uint32
	failcount uint32

	rnd randomGenerator
}

func (this *globalContext) init(bufSize int) {
	this.buf = make([]uint8, bufSize)
	this.bufMask = bufSize - 1
	this.c0 = 1
	this.cxtfl = 3
	this.smShft = 7
	this.smAdd = 65535 + 127
	this.rnd.init()
}

// bufIdx returns the history byte at absolute position i.
func (this *globalContext) bufIdx(i int) int {
	return int(this.buf[i&this.bufMask])
}

// bufAt returns the history byte i positions back from the write head.
func (this *globalContext) bufAt(i int) int {
	return int(this.buf[(this.pos-i)&this.bufMask])
}

// contextModel gathers all model predictions into one mixer. The
// inputs of the hashed context map (a run input and five bit history
// features for each of its seven contexts) are rescaled after the
// fact: those of the first three contexts keep their weight, the
// remaining ones are scaled by 5/4, 6/4 and 9/4 in turn.
type contextModel struct {
	cm     *contextMap
	rcm7   *runContextMap
	rcm9   *runContextMap
	rcm10  *runContextMap
	match  *matchModel
	word   *wordModel
	sparse *sparseModel
	record *recordModel
	m      *mixer
	cxt    [16]uint32
	size   int32
	level  uint
}

func newContextModel(mem int, level uint) (*contextModel, error) {
	this := &contextModel{}
	this.level = level
	var err error

	if this.cm, err = newContextMap(mem*31, 7); err != nil {
		return nil, err
	}

	if this.rcm7, err = newRunContextMap(mem/4, 14); err != nil {
		return nil, err
	}

	if this.rcm9, err = newRunContextMap(mem/4, 18); err != nil {
		return nil, err
	}

	if this.rcm10, err = newRunContextMap(mem/2, 20); err != nil {
		return nil, err
	}

	this.match = newMatchModel(mem)
	this.m = newMixer(456, 128*(16+14+14+12+14+16), 6, 512)

	if level >= 4 {
		if this.word, err = newWordModel(mem * 31); err != nil {
			return nil, err
		}

		if this.sparse, err = newSparseModel(mem * 2); err != nil {
			return nil, err
		}

		if this.record, err = newRecordModel(); err != nil {
			return nil, err
		}
	}

	return this, nil
}

func (this *contextModel) mix(g *globalContext) int {
	m := this.m
	m.update(g.y)
	m.add(64)

	if g.bpos == 0 {
		this.size--

		if this.size == -5 {
			this.size = int32(g.c4)
		}

		i := 0
		f2 := uint32(g.bufAt(2))

		if f2 == '.' || f2 == 'O' || f2 == 'M' || f2 == '!' || f2 == ')' || f2 == '}'-'{'+'P' {
			if g.b1 != f2 && uint32(g.bufAt(3)) != f2 {
				i = 13
				g.x4 = g.x4*256 + f2
			}
		}

		// pretend the punctuation byte repeated, then roll in b1
		for ; i > 0; i-- {
			this.cxt[i] = this.cxt[i-1] * primes[i]
		}

		for i = 13; i > 0; i-- {
			this.cxt[i] = this.cxt[i-1]*primes[i] + g.b1
		}

		this.cm.set(this.cxt[3])
		this.cm.set(this.cxt[4])
		this.cm.set(this.cxt[5])
		this.cm.set(this.cxt[6])
		this.cm.set(this.cxt[8])
		this.cm.set(this.cxt[13])
		this.cm.set(0)

		this.rcm7.set(this.cxt[7], g)
		this.rcm9.set(this.cxt[9], g)
		this.rcm10.set(this.cxt[11], g)
		g.x4 = g.x4*256 + g.b1
	}

	this.rcm7.mix(m, g)
	this.rcm9.mix(m, g)
	this.rcm10.mix(m, g)

	qq := m.nx
	g.order = this.cm.mix(m, g) - 1

	if g.order < 0 {
		g.order = 0
	}

	// keep the first 3/7 of the context map inputs, rescale the rest
	zz := (m.nx - qq) / 7
	m.nx = qq + zz*3

	for i := 0; i < zz*2; i++ {
		m.mul(5)
	}

	for i := 0; i < zz; i++ {
		m.mul(6)
	}

	for i := 0; i < zz; i++ {
		m.mul(9)
	}

	this.match.mix(m, g)

	if this.level >= 4 {
		this.word.mix(m, g)
		this.sparse.mix(m, g)
		this.record.mix(m, g)
	}

	c1 := g.b1
	c2 := g.b2
	var c uint32

	if c1 == 9 || c1 == 10 || c1 == 32 {
		c1 = 16
	}

	if c2 == 9 || c2 == 10 || c2 == 32 {
		c2 = 16
	}

	m.set(int(uint32(256*g.order)+(g.w4&240)+(c2>>4)), 256*7)
	c = (g.words >> 1) & 63
	m.set(int((g.w4&3)*64+c+uint32(g.order*256)), 256*7)
	c = (g.w4 & 255) + uint32(256*g.bpos)
	m.set(int(c), 256*8)

	if g.bpos != 0 {
		c = uint32(g.c0) << uint(8-g.bpos)

		if g.bpos == 1 {
			c += g.b3 / 2
		}

		c = uint32(imin(g.bpos, 5))*256 + (g.tt & 63) + (c & 192)
	} else {
		c = (g.words&12)*16 + (g.tt & 63)
	}

	m.set(int(c), 1536)
	c = uint32(g.bpos)
	c2 = (uint32(g.c0) << uint(8-g.bpos)) | (c1 >> uint(g.bpos))
	m.set(int(uint32(g.order*256)+c+(c2&248)), 256*7)
	c = c*256 + ((uint32(g.c0) << uint(8-g.bpos)) & 255)
	c1 = (g.words << uint(g.bpos)) & 255
	m.set(int(c+(c1>>uint(g.bpos))), 2048)

	return m.p(g.y)
}

// NewPAQ8HPPredictor creates a predictor whose level dependent memory
// grows as 64 KB << level (see PAQ8HPPredictor). Levels above 3 enable
// the text models.
func NewPAQ8HPPredictor(level uint) (*PAQ8HPPredictor, error) {
	if level > 9 {
		return nil, fmt.Errorf("The level must be at most 9, got %d", level)
	}

	mem := 0x10000 << level
	this := &PAQ8HPPredictor{}
	this.g.init(mem * 8)
	this.pr = 2048
	var err error

	if this.cm, err = newContextModel(mem, level); err != nil {
		return nil, err
	}

	if this.a1, err = newAdaptiveProbMap(256); err != nil {
		return nil, err
	}

	if this.a2, err = newAdaptiveProbMap(0x8000); err != nil {
		return nil, err
	}

	if this.a3, err = newAdaptiveProbMap(0x8000); err != nil {
		return nil, err
	}

	if this.a4, err = newAdaptiveProbMap(0x20000); err != nil {
		return nil, err
	}

	if this.a5, err = newAdaptiveProbMap(0x10000); err != nil {
		return nil, err
	}

	if this.a6, err = newAdaptiveProbMap(0x10000); err != nil {
		return nil, err
	}

	return this, nil
}

// Update trains the models with the decoded bit and computes the
// probability that the next bit is one.
func (this *PAQ8HPPredictor) Update(bit byte) {
	g := &this.g
	g.y = int(bit)

	if bit != 0 {
		g.smAddY = g.smAdd
	} else {
		g.smAddY = 0
	}

	g.c0 += g.c0 + g.y

	if g.c0 >= 256 {
		g.buf[g.pos&g.bufMask] = uint8(g.c0)
		g.pos++
		c := uint32(g.c0 & 255)
		g.c0 = 1

		if g.pos <= 1024*1024 {
			if g.pos == 1024*1024 {
				g.smShft = 9
				g.smAdd = 65535 + 511
			}

			if g.pos == 512*1024 {
				g.smShft = 8
				g.smAdd = 65535 + 255
			}

			g.smAddY = g.smAdd & (-g.y)
		}

		i := wrtMpw[c>>4]
		g.w4 = g.w4*4 + i

		if g.b1 == 12 {
			i = 2
		}

		g.w5 = g.w5*4 + i
		g.b8 = g.b7
		g.b7 = g.b6
		g.b6 = g.b5
		g.b5 = g.b4
		g.b4 = g.b3
		g.b3 = g.b2
		g.b2 = g.b1
		g.b1 = c

		if c == '.' || c == 'O' || c == 'M' || c == '!' || c == ')' || c == '}'-'{'+'P' {
			g.w5 = g.w5<<8 | 0x3FF
			g.x5 = (g.x5 << 8) + c
			g.f4 = (g.f4 & 0xFFFFFFF0) + 2

			if c != '!' && c != 'O' {
				g.w4 |= 12
			}

			if c != '!' {
				g.b2 = '.'
				g.tt = (g.tt & 0xFFFFFFF8) + 1
			}
		}

		g.c4 = (g.c4 << 8) + c
		g.x5 = (g.x5 << 8) + c

		if c == 32 {
			c--
		}

		g.f4 = g.f4*16 + (c >> 4)
		g.tt = g.tt*8 + wrtMtt[c>>4]
	}

	g.bpos = (g.bpos + 1) & 7

	// track how often the recent predictions went wrong
	if g.fails&0x80 != 0 {
		g.failcount--
	}

	g.fails *= 2
	g.failz *= 2
	pr := this.pr

	if g.y != 0 {
		pr ^= 4095
	}

	if pr >= 1820 {
		g.fails++
		g.failcount++
	}

	if pr >= 848 {
		g.failz++
	}

	pr0 := this.cm.mix(g)
	rate := 6

	if g.pos > 14*256*1024 {
		rate++
	}

	if g.pos > 28*512*1024 {
		rate++
	}

	pu := (this.a1.p(g.y, pr0, g.c0, 3) + 7*pr0 + 4) >> 3
	pz := int(g.failcount) + 1
	pz += tri[(g.fails>>5)&3]
	pz += trj[(g.fails>>3)&3]
	pz += trj[(g.fails>>1)&3]

	if g.fails&1 != 0 {
		pz += 8
	}

	pz /= 2

	pu = this.a4.p(g.y, pu, int(uint32(g.c0*2)^(cmix.Hash3(g.b1, (g.x5>>8)&255, (g.x5>>16)&0x80FF)&0x1FFFF)), rate)
	pv := this.a2.p(g.y, pr0, int(uint32(g.c0*8)^(cmix.Hash(29, g.failz&2047)&0x7FFF)), rate+1)
	pv = this.a5.p(g.y, pv, int(cmix.Hash(uint32(g.c0), g.w5&0xFFFFF)&0xFFFF), rate)
	pt := this.a3.p(g.y, pr0, int(uint32(g.c0*32)^(cmix.Hash(19, g.x5&0x80FFFF)&0x7FFF)), rate)
	pz = this.a6.p(g.y, pu, int(uint32(g.c0*4)^(cmix.Hash(uint32(imin(9, pz)), g.x5&0x80FF)&0xFFFF)), rate)

	if g.fails&255 != 0 {
		this.pr = (pt*6 + pu + pv*11 + pz*14 + 16) >> 5
	} else {
		this.pr = (pt*4 + pu*5 + pv*12 + pz*11 + 16) >> 5
	}
}

// Get returns the probability that the next bit is 1 as a 12 bit
// number.
func (this *PAQ8HPPredictor) Get() int {
	return this.pr
}

// ByteModel exposes the predictor with a byte oriented API: feed whole
// bytes (or individual bits) and read the probability of a one as a
// float in (0, 1).
type ByteModel struct {
	p *PAQ8HPPredictor
}

func NewByteModel(level uint) (*ByteModel, error) {
	p, err := NewPAQ8HPPredictor(level)

	if err != nil {
		return nil, err
	}

	return &ByteModel{p: p}, nil
}

// Predict returns the probability that the next bit is 1.
func (this *ByteModel) Predict() float32 {
	return float32(1+this.p.Get()) / 4097
}

// Perceive trains the model with the observed bit (0 or 1).
func (this *ByteModel) Perceive(bit int) {
	if bit != 0 {
		this.p.Update(1)
	} else {
		this.p.Update(0)
	}
}

// ByteUpdate feeds all 8 bits of b, most significant first.
func (this *ByteModel) ByteUpdate(b byte) {
	for i := 7; i >= 0; i-- {
		this.p.Update((b >> uint(i)) & 1)
	}
}
