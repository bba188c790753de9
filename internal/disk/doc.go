// Package disk contains the disk-layout planner and its data model.
//
// The planner is pure decision logic: given the firmware mode and the
// user's encryption and partition-count choices it produces an ordered
// Layout of partition and volume specs. It never touches hardware; the
// engine subpackage executes a Layout against a real device.
package disk
