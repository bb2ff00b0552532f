// Package classfile decodes JVM class files into a fully resolved AST.
//
// This package contains:
//   - Bounded big-endian reader with nesting depth limits
//   - Two-pass constant pool resolution with cycle detection
//   - Field and method descriptor parsing
//   - Bytecode decoding into a label-based semantic instruction set
//   - Attribute parsing (Code, SourceFile, Signature, ConstantValue,
//     Exceptions, BootstrapMethods)
package classfile
