package dco

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// WireTag identifies the payload type in an encoded buffer, per spec.md §6.
type WireTag uint32

const (
	TagProblem          WireTag = 0x01
	TagNode             WireTag = 0x02
	TagLinearConstraint WireTag = 0x03
	TagConicConstraint  WireTag = 0x04
	TagIncumbent        WireTag = 0x05
)

// Encode writes tag, then a 4-byte length, then payload, matching spec.md
// §6's "4-byte tag, 4-byte length, payload" buffer layout.
//
// Grounded on original_source/src/DcoConicConstraint.hpp's encode/decode/
// decodeToSelf trio, translated from AlpsEncoded's C++ buffer-append API to
// Go's (buf []byte, err error) idiom used throughout this package.
func Encode(tag WireTag, payload []byte) []byte {
	buf := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], uint32(tag))
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(payload)))
	copy(buf[8:], payload)
	return buf
}

// Decode reads the tag/length header and returns the tag, the payload
// slice, and the number of bytes consumed from buf (so callers can decode a
// sequence of back-to-back buffers).
func Decode(buf []byte) (tag WireTag, payload []byte, consumed int, err error) {
	if len(buf) < 8 {
		return 0, nil, 0, fmt.Errorf("dco: buffer too short for header: %d bytes", len(buf))
	}
	tag = WireTag(binary.BigEndian.Uint32(buf[0:4]))
	length := binary.BigEndian.Uint32(buf[4:8])
	if uint32(len(buf)-8) < length {
		return 0, nil, 0, fmt.Errorf("dco: buffer too short for payload: want %d, have %d", length, len(buf)-8)
	}
	payload = buf[8 : 8+length]
	return tag, payload, 8 + int(length), nil
}

func putFloat64(buf *bytes.Buffer, v float64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	buf.Write(b[:])
}

func getFloat64(buf []byte, off int) (float64, int) {
	bits := binary.BigEndian.Uint64(buf[off : off+8])
	return math.Float64frombits(bits), off + 8
}

func putInt32(buf *bytes.Buffer, v int32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	buf.Write(b[:])
}

func getInt32(buf []byte, off int) (int32, int) {
	return int32(binary.BigEndian.Uint32(buf[off : off+4])), off + 4
}

// EncodeLinearConstraint serializes a LinearConstraint's sparse row plus
// bounds: count, then (index, coef) pairs, then lb, ub.
func EncodeLinearConstraint(c *LinearConstraint) []byte {
	var buf bytes.Buffer
	putInt32(&buf, int32(len(c.terms)))
	for _, t := range c.terms {
		putInt32(&buf, int32(t.variable.index))
		putFloat64(&buf, t.coef)
	}
	putFloat64(&buf, c.lb)
	putFloat64(&buf, c.ub)
	return Encode(TagLinearConstraint, buf.Bytes())
}

// DecodeLinearConstraint is the symmetric inverse of
// EncodeLinearConstraint. vars resolves term indices back to *Variable
// pointers (decoding never allocates new Variables — rows are always
// decoded against an already-decoded Problem's variable list).
func DecodeLinearConstraint(payload []byte, vars []*Variable) (*LinearConstraint, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("dco: linear constraint payload too short")
	}
	n, off := getInt32(payload, 0)
	c := &LinearConstraint{}
	for i := int32(0); i < n; i++ {
		var idx int32
		idx, off = getInt32(payload, off)
		var coef float64
		coef, off = getFloat64(payload, off)
		if int(idx) >= len(vars) {
			return nil, fmt.Errorf("dco: linear constraint references unknown variable %d", idx)
		}
		c.terms = append(c.terms, LinearExpr{coef: coef, variable: vars[idx]})
	}
	c.lb, off = getFloat64(payload, off)
	c.ub, _ = getFloat64(payload, off)
	return c, nil
}

// EncodeConicConstraint serializes a ConicConstraint's type, members, and
// supports.
//
// Grounded on original_source/src/DcoConicConstraint.hpp's encode(), which
// writes coneType_, coneSize_, members_, then each support's row and active
// flag.
func EncodeConicConstraint(c *ConicConstraint) []byte {
	var buf bytes.Buffer
	putInt32(&buf, int32(c.coneType))
	putInt32(&buf, int32(len(c.members)))
	for _, idx := range c.members {
		putInt32(&buf, int32(idx))
	}
	putInt32(&buf, int32(len(c.supports)))
	for _, s := range c.supports {
		putInt32(&buf, int32(len(s.Indices)))
		for i, idx := range s.Indices {
			putInt32(&buf, int32(idx))
			putFloat64(&buf, s.Values[i])
		}
		putFloat64(&buf, s.RHS)
		active := int32(0)
		if s.Active {
			active = 1
		}
		putInt32(&buf, active)
	}
	return Encode(TagConicConstraint, buf.Bytes())
}

// DecodeConicConstraint is the symmetric inverse of EncodeConicConstraint.
func DecodeConicConstraint(payload []byte) (*ConicConstraint, error) {
	if len(payload) < 8 {
		return nil, fmt.Errorf("dco: conic constraint payload too short")
	}
	coneTypeRaw, off := getInt32(payload, 0)
	c := &ConicConstraint{coneType: ConeType(coneTypeRaw)}

	var numMembers int32
	numMembers, off = getInt32(payload, off)
	for i := int32(0); i < numMembers; i++ {
		var idx int32
		idx, off = getInt32(payload, off)
		c.members = append(c.members, int(idx))
	}

	var numSupports int32
	numSupports, off = getInt32(payload, off)
	for i := int32(0); i < numSupports; i++ {
		var n int32
		n, off = getInt32(payload, off)
		s := Support{}
		for j := int32(0); j < n; j++ {
			var idx int32
			idx, off = getInt32(payload, off)
			var v float64
			v, off = getFloat64(payload, off)
			s.Indices = append(s.Indices, int(idx))
			s.Values = append(s.Values, v)
		}
		s.RHS, off = getFloat64(payload, off)
		var active int32
		active, off = getInt32(payload, off)
		s.Active = active != 0
		c.supports = append(c.supports, s)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// EncodeProblem serializes a Problem's variables, linear constraints, and
// conic constraints into one buffer: objective sense, column count, then
// per-column (lower, upper, objective coefficient, integer flag), then the linear
// rows and conic rows each as a count-prefixed sequence of their own
// encoded payloads.
//
// Grounded on original_source/src/DcoModel.hpp's readAddVariables/
// readAddLinearConstraints/readAddConicConstraints split (there reading
// from an MPS file; here reading from a byte buffer written by this same
// package, the cross-worker exchange format spec.md §5 describes).
func EncodeProblem(p *Problem) []byte {
	var buf bytes.Buffer
	putInt32(&buf, int32(p.sense))
	putInt32(&buf, int32(len(p.variables)))
	for _, v := range p.variables {
		putFloat64(&buf, v.lower)
		putFloat64(&buf, v.upper)
		putFloat64(&buf, v.coefficient)
		integer := int32(0)
		if v.integer {
			integer = 1
		}
		putInt32(&buf, integer)
	}

	putInt32(&buf, int32(len(p.linear)))
	for _, c := range p.linear {
		encoded := EncodeLinearConstraint(c)
		putInt32(&buf, int32(len(encoded)))
		buf.Write(encoded)
	}

	putInt32(&buf, int32(len(p.conic)))
	for _, c := range p.conic {
		encoded := EncodeConicConstraint(c)
		putInt32(&buf, int32(len(encoded)))
		buf.Write(encoded)
	}

	return Encode(TagProblem, buf.Bytes())
}

// DecodeProblem is the symmetric inverse of EncodeProblem, rebuilding a
// fresh, already-Setup Problem.
func DecodeProblem(payload []byte) (*Problem, error) {
	senseRaw, off := getInt32(payload, 0)
	p := NewProblem(ObjectiveSense(senseRaw))

	var numVars int32
	numVars, off = getInt32(payload, off)
	for i := int32(0); i < numVars; i++ {
		v := p.AddVariable("")
		var lower, upper, coef float64
		lower, off = getFloat64(payload, off)
		upper, off = getFloat64(payload, off)
		coef, off = getFloat64(payload, off)
		v.SetBounds(lower, upper)
		v.SetCoeff(coef)
		var integer int32
		integer, off = getInt32(payload, off)
		if integer != 0 {
			v.SetInteger()
		}
	}

	var numLinear int32
	numLinear, off = getInt32(payload, off)
	for i := int32(0); i < numLinear; i++ {
		var encLen int32
		encLen, off = getInt32(payload, off)
		_, rowPayload, _, err := Decode(payload[off : off+int(encLen)])
		if err != nil {
			return nil, err
		}
		off += int(encLen)
		row, err := DecodeLinearConstraint(rowPayload, p.variables)
		if err != nil {
			return nil, err
		}
		row.id = len(p.linear)
		row.problem = p
		p.linear = append(p.linear, row)
	}

	var numConic int32
	numConic, off = getInt32(payload, off)
	for i := int32(0); i < numConic; i++ {
		var encLen int32
		encLen, off = getInt32(payload, off)
		_, conePayload, _, err := Decode(payload[off : off+int(encLen)])
		if err != nil {
			return nil, err
		}
		off += int(encLen)
		cone, err := DecodeConicConstraint(conePayload)
		if err != nil {
			return nil, err
		}
		cone.id = len(p.conic)
		p.conic = append(p.conic, cone)
	}

	if err := p.Setup(); err != nil {
		return nil, err
	}
	return p, nil
}

// EncodeNode serializes a Node's id, parent id, depth, status, local bound
// deltas, and local rows. The warm-start handle is solver-specific and
// never crosses the wire (spec.md §5: warm starts are local to a worker).
func EncodeNode(n *Node) []byte {
	var buf bytes.Buffer
	putInt32(&buf, int32(n.id))
	parentID := int32(-1)
	if n.parent != nil {
		parentID = int32(n.parent.id)
	}
	putInt32(&buf, parentID)
	putInt32(&buf, int32(n.depth))
	putInt32(&buf, int32(n.status))

	putInt32(&buf, int32(len(n.localBounds)))
	for _, bd := range n.localBounds {
		putInt32(&buf, int32(bd.col))
		putFloat64(&buf, bd.lower)
		putFloat64(&buf, bd.upper)
		hasLower, hasUpper := int32(0), int32(0)
		if bd.hasLower {
			hasLower = 1
		}
		if bd.hasUpper {
			hasUpper = 1
		}
		putInt32(&buf, hasLower)
		putInt32(&buf, hasUpper)
	}

	putInt32(&buf, int32(len(n.localRows)))
	for _, row := range n.localRows {
		encoded := EncodeLinearConstraint(row)
		putInt32(&buf, int32(len(encoded)))
		buf.Write(encoded)
	}

	return Encode(TagNode, buf.Bytes())
}

// DecodeNode is the symmetric inverse of EncodeNode. It reconstructs a
// detached Node (parent left nil; callers reattach it into a tree by id
// using parentID, the second return value) since a decoded Node generally
// arrives on a different worker than its parent.
func DecodeNode(payload []byte, vars []*Variable) (n *Node, parentID int32, err error) {
	var id int32
	id, off := getInt32(payload, 0)
	parentID, off = getInt32(payload, off)
	var depth, status int32
	depth, off = getInt32(payload, off)
	status, off = getInt32(payload, off)

	n = &Node{id: int64(id), depth: int(depth), status: NodeStatus(status)}
	n.root = n

	var numBounds int32
	numBounds, off = getInt32(payload, off)
	for i := int32(0); i < numBounds; i++ {
		var col int32
		col, off = getInt32(payload, off)
		var lower, upper float64
		lower, off = getFloat64(payload, off)
		upper, off = getFloat64(payload, off)
		var hasLower, hasUpper int32
		hasLower, off = getInt32(payload, off)
		hasUpper, off = getInt32(payload, off)
		n.localBounds = append(n.localBounds, boundDelta{
			col: int(col), lower: lower, upper: upper,
			hasLower: hasLower != 0, hasUpper: hasUpper != 0,
		})
	}

	var numRows int32
	numRows, off = getInt32(payload, off)
	for i := int32(0); i < numRows; i++ {
		var encLen int32
		encLen, off = getInt32(payload, off)
		_, rowPayload, _, derr := Decode(payload[off : off+int(encLen)])
		if derr != nil {
			return nil, 0, derr
		}
		off += int(encLen)
		row, derr := DecodeLinearConstraint(rowPayload, vars)
		if derr != nil {
			return nil, 0, derr
		}
		n.localRows = append(n.localRows, row)
	}

	return n, parentID, nil
}

// EncodeIncumbent serializes an incumbent's objective value and point.
func EncodeIncumbent(objValue float64, point []float64) []byte {
	var buf bytes.Buffer
	putFloat64(&buf, objValue)
	putInt32(&buf, int32(len(point)))
	for _, v := range point {
		putFloat64(&buf, v)
	}
	return Encode(TagIncumbent, buf.Bytes())
}

// DecodeIncumbent is the symmetric inverse of EncodeIncumbent.
func DecodeIncumbent(payload []byte) (objValue float64, point []float64, err error) {
	if len(payload) < 12 {
		return 0, nil, fmt.Errorf("dco: incumbent payload too short")
	}
	objValue, off := getFloat64(payload, 0)
	var n int32
	n, off = getInt32(payload, off)
	point = make([]float64, n)
	for i := int32(0); i < n; i++ {
		point[i], off = getFloat64(payload, off)
	}
	return objValue, point, nil
}
