package vm

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Bytecode container format: a 4-byte magic, a 3-byte version, then the
// body (function table, then the instruction stream).
const (
	magicNumber  = "TSN\x00"
	versionMajor = 1
	versionMinor = 0
)

// EncodeProgram serializes prog into the container format.
func EncodeProgram(prog *Program) []byte {
	var buf bytes.Buffer
	buf.WriteString(magicNumber)
	buf.WriteByte(versionMajor)
	buf.WriteByte(versionMinor)
	buf.WriteByte(0) // reserved

	writeUint32(&buf, uint32(len(prog.Functions)))
	for _, fn := range prog.Functions {
		writeString(&buf, fn.Name)
		writeString(&buf, fn.HostName)
		writeUint32(&buf, uint32(fn.Entry))
	}

	writeUint32(&buf, uint32(len(prog.Instructions)))
	for _, in := range prog.Instructions {
		words := EncodeInstruction(in)
		var w [8]byte
		binary.LittleEndian.PutUint64(w[:], words[0])
		buf.Write(w[:])
		binary.LittleEndian.PutUint64(w[:], words[1])
		buf.Write(w[:])
	}

	return buf.Bytes()
}

// DecodeProgram parses the container format EncodeProgram produces.
func DecodeProgram(data []byte) (*Program, error) {
	r := bytes.NewReader(data)

	magic := make([]byte, 4)
	if _, err := r.Read(magic); err != nil || string(magic) != magicNumber {
		return nil, fmt.Errorf("vm: bad magic number")
	}
	version := make([]byte, 3)
	if _, err := r.Read(version); err != nil {
		return nil, fmt.Errorf("vm: truncated header: %w", err)
	}
	if version[0] != versionMajor {
		return nil, fmt.Errorf("vm: incompatible bytecode version %d.%d", version[0], version[1])
	}

	funcCount, err := readUint32(r)
	if err != nil {
		return nil, fmt.Errorf("vm: reading function count: %w", err)
	}
	functions := make([]FunctionEntry, funcCount)
	for i := range functions {
		name, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("vm: reading function %d name: %w", i, err)
		}
		host, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("vm: reading function %d host name: %w", i, err)
		}
		entry, err := readUint32(r)
		if err != nil {
			return nil, fmt.Errorf("vm: reading function %d entry: %w", i, err)
		}
		functions[i] = FunctionEntry{Name: name, HostName: host, Entry: int(entry)}
	}

	instrCount, err := readUint32(r)
	if err != nil {
		return nil, fmt.Errorf("vm: reading instruction count: %w", err)
	}
	instructions := make([]Instruction, instrCount)
	for i := range instructions {
		var w [8]byte
		if _, err := r.Read(w[:]); err != nil {
			return nil, fmt.Errorf("vm: reading instruction %d word0: %w", i, err)
		}
		word0 := binary.LittleEndian.Uint64(w[:])
		if _, err := r.Read(w[:]); err != nil {
			return nil, fmt.Errorf("vm: reading instruction %d word1: %w", i, err)
		}
		word1 := binary.LittleEndian.Uint64(w[:])
		instructions[i] = DecodeInstruction([2]uint64{word0, word1})
	}

	return &Program{Instructions: instructions, Functions: functions}, nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func writeString(buf *bytes.Buffer, s string) {
	writeUint32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	n, err := readUint32(r)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if n > 0 {
		if _, err := r.Read(b); err != nil {
			return "", err
		}
	}
	return string(b), nil
}
