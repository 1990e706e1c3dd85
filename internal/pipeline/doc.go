// Package pipeline runs manifest generation as a sequence of steps.
//
// A generation run moves through validate, enumerate, assemble and write.
// Each stage is a Step that receives the shared model.Run and may modify it.
// Before a step runs, the Pipeline records the step's state on the Run, so
// a failed run always tells which stage it died in.
//
// The Assembler turns enumerated paths into cards. It can process several
// files concurrently with errgroup while keeping the output identical to a
// sequential run: every file owns a result slot at its enumeration index.
//
// Lock serializes runs on the same directory across processes with an
// advisory file lock.
package pipeline
