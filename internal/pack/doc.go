// Package pack selects and executes the packaging strategy.
//
// Select is a pure decision over (override, platform, package manager);
// the per-strategy assemblers do the work: stage a filesystem tree
// mirroring the install layout, populate it with build outputs and
// resources, generate metadata, append the internal checksum manifest,
// invoke the external packaging tool through execx.Runner, and rename the
// artifact under the deterministic <product>-<version>[-debug][-suffix]
// naming convention.
package pack
