package durable

import "math"

func float32bitsOf(f float32) uint32     { return math.Float32bits(f) }
func float32FromBitsOf(b uint32) float32 { return math.Float32frombits(b) }
