// SPDX-License-Identifier: MPL-2.0

// Package assembler turns validated publications and registries into tasks.
//
// Every publication gets one assemble task that stages the package
// directory and one pack task. Every (publication, registry) pair gets one
// publish task. The lifecycle tasks assemble, pack and publish aggregate
// them. Existing tasks with a derived name are reused, so assembling twice
// adds nothing.
package assembler
