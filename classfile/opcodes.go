package classfile

// ---------------------------------------------------------------------------
// Raw opcode values
// ---------------------------------------------------------------------------

// Raw JVM opcode values. The decoder collapses these into the semantic
// instruction set in insn.go; they are exported for tooling that needs to
// talk about raw bytes.
const (
	OpNop             = 0x00
	OpAconstNull      = 0x01
	OpIconstM1        = 0x02
	OpIconst0         = 0x03
	OpIconst1         = 0x04
	OpIconst2         = 0x05
	OpIconst3         = 0x06
	OpIconst4         = 0x07
	OpIconst5         = 0x08
	OpLconst0         = 0x09
	OpLconst1         = 0x0a
	OpFconst0         = 0x0b
	OpFconst1         = 0x0c
	OpFconst2         = 0x0d
	OpDconst0         = 0x0e
	OpDconst1         = 0x0f
	OpBipush          = 0x10
	OpSipush          = 0x11
	OpLdc             = 0x12
	OpLdcW            = 0x13
	OpLdc2W           = 0x14
	OpIload           = 0x15
	OpLload           = 0x16
	OpFload           = 0x17
	OpDload           = 0x18
	OpAload           = 0x19
	OpIload0          = 0x1a
	OpIload1          = 0x1b
	OpIload2          = 0x1c
	OpIload3          = 0x1d
	OpLload0          = 0x1e
	OpLload1          = 0x1f
	OpLload2          = 0x20
	OpLload3          = 0x21
	OpFload0          = 0x22
	OpFload1          = 0x23
	OpFload2          = 0x24
	OpFload3          = 0x25
	OpDload0          = 0x26
	OpDload1          = 0x27
	OpDload2          = 0x28
	OpDload3          = 0x29
	OpAload0          = 0x2a
	OpAload1          = 0x2b
	OpAload2          = 0x2c
	OpAload3          = 0x2d
	OpIaload          = 0x2e
	OpLaload          = 0x2f
	OpFaload          = 0x30
	OpDaload          = 0x31
	OpAaload          = 0x32
	OpBaload          = 0x33
	OpCaload          = 0x34
	OpSaload          = 0x35
	OpIstore          = 0x36
	OpLstore          = 0x37
	OpFstore          = 0x38
	OpDstore          = 0x39
	OpAstore          = 0x3a
	OpIstore0         = 0x3b
	OpIstore1         = 0x3c
	OpIstore2         = 0x3d
	OpIstore3         = 0x3e
	OpLstore0         = 0x3f
	OpLstore1         = 0x40
	OpLstore2         = 0x41
	OpLstore3         = 0x42
	OpFstore0         = 0x43
	OpFstore1         = 0x44
	OpFstore2         = 0x45
	OpFstore3         = 0x46
	OpDstore0         = 0x47
	OpDstore1         = 0x48
	OpDstore2         = 0x49
	OpDstore3         = 0x4a
	OpAstore0         = 0x4b
	OpAstore1         = 0x4c
	OpAstore2         = 0x4d
	OpAstore3         = 0x4e
	OpIastore         = 0x4f
	OpLastore         = 0x50
	OpFastore         = 0x51
	OpDastore         = 0x52
	OpAastore         = 0x53
	OpBastore         = 0x54
	OpCastore         = 0x55
	OpSastore         = 0x56
	OpPop             = 0x57
	OpPop2            = 0x58
	OpDup             = 0x59
	OpDupX1           = 0x5a
	OpDupX2           = 0x5b
	OpDup2            = 0x5c
	OpDup2X1          = 0x5d
	OpDup2X2          = 0x5e
	OpSwap            = 0x5f
	OpIadd            = 0x60
	OpLadd            = 0x61
	OpFadd            = 0x62
	OpDadd            = 0x63
	OpIsub            = 0x64
	OpLsub            = 0x65
	OpFsub            = 0x66
	OpDsub            = 0x67
	OpImul            = 0x68
	OpLmul            = 0x69
	OpFmul            = 0x6a
	OpDmul            = 0x6b
	OpIdiv            = 0x6c
	OpLdiv            = 0x6d
	OpFdiv            = 0x6e
	OpDdiv            = 0x6f
	OpIrem            = 0x70
	OpLrem            = 0x71
	OpFrem            = 0x72
	OpDrem            = 0x73
	OpIneg            = 0x74
	OpLneg            = 0x75
	OpFneg            = 0x76
	OpDneg            = 0x77
	OpIshl            = 0x78
	OpLshl            = 0x79
	OpIshr            = 0x7a
	OpLshr            = 0x7b
	OpIushr           = 0x7c
	OpLushr           = 0x7d
	OpIand            = 0x7e
	OpLand            = 0x7f
	OpIor             = 0x80
	OpLor             = 0x81
	OpIxor            = 0x82
	OpLxor            = 0x83
	OpIinc            = 0x84
	OpI2l             = 0x85
	OpI2f             = 0x86
	OpI2d             = 0x87
	OpL2i             = 0x88
	OpL2f             = 0x89
	OpL2d             = 0x8a
	OpF2i             = 0x8b
	OpF2l             = 0x8c
	OpF2d             = 0x8d
	OpD2i             = 0x8e
	OpD2l             = 0x8f
	OpD2f             = 0x90
	OpI2b             = 0x91
	OpI2c             = 0x92
	OpI2s             = 0x93
	OpLcmp            = 0x94
	OpFcmpl           = 0x95
	OpFcmpg           = 0x96
	OpDcmpl           = 0x97
	OpDcmpg           = 0x98
	OpIfeq            = 0x99
	OpIfne            = 0x9a
	OpIflt            = 0x9b
	OpIfge            = 0x9c
	OpIfgt            = 0x9d
	OpIfle            = 0x9e
	OpIfIcmpeq        = 0x9f
	OpIfIcmpne        = 0xa0
	OpIfIcmplt        = 0xa1
	OpIfIcmpge        = 0xa2
	OpIfIcmpgt        = 0xa3
	OpIfIcmple        = 0xa4
	OpIfAcmpeq        = 0xa5
	OpIfAcmpne        = 0xa6
	OpGoto            = 0xa7
	OpJsr             = 0xa8
	OpRet             = 0xa9
	OpTableswitch     = 0xaa
	OpLookupswitch    = 0xab
	OpIreturn         = 0xac
	OpLreturn         = 0xad
	OpFreturn         = 0xae
	OpDreturn         = 0xaf
	OpAreturn         = 0xb0
	OpReturn          = 0xb1
	OpGetstatic       = 0xb2
	OpPutstatic       = 0xb3
	OpGetfield        = 0xb4
	OpPutfield        = 0xb5
	OpInvokevirtual   = 0xb6
	OpInvokespecial   = 0xb7
	OpInvokestatic    = 0xb8
	OpInvokeinterface = 0xb9
	OpInvokedynamic   = 0xba
	OpNew             = 0xbb
	OpNewarray        = 0xbc
	OpAnewarray       = 0xbd
	OpArraylength     = 0xbe
	OpAthrow          = 0xbf
	OpCheckcast       = 0xc0
	OpInstanceof      = 0xc1
	OpMonitorenter    = 0xc2
	OpMonitorexit     = 0xc3
	OpWide            = 0xc4
	OpMultianewarray  = 0xc5
	OpIfnull          = 0xc6
	OpIfnonnull       = 0xc7
	OpGotoW           = 0xc8
	OpJsrW            = 0xc9
	OpBreakpoint      = 0xca
	OpImpdep1         = 0xfe
	OpImpdep2         = 0xff
)

// newarray atype operand values.
const (
	arrayTypeBoolean = 4
	arrayTypeChar    = 5
	arrayTypeFloat   = 6
	arrayTypeDouble  = 7
	arrayTypeByte    = 8
	arrayTypeShort   = 9
	arrayTypeInt     = 10
	arrayTypeLong    = 11
)
