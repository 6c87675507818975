// Package subprocess creates, observes and tears down operating-system
// child processes behind one behavioral contract on POSIX systems and
// Windows. It supports pipe-based standard-stream redirection, spawn-time
// environment diffs, suspended and detached creation, and waiting on many
// processes at once without per-process polling goroutines.
//
// The package works at the process-creation syscall layer rather than
// through os/exec because the contract requires capabilities os/exec does
// not expose: creating a child that has not yet executed its first
// instruction, probing liveness without consuming the exit status a later
// Wait needs, and precise ownership of the descriptors handed to the child.
//
// Suspended creation is exact on Linux, where the child is held before the
// first instruction of the target program runs, and on Windows via
// CREATE_SUSPENDED. On other Unix systems it is best effort: the stop
// signal is delivered immediately after creation, so the child may execute
// briefly before it lands. Callers needing the strict guarantee should
// treat those platforms accordingly.
//
// All operations execute on the calling goroutine. Wait, Select and
// SelectTimeout are the only blocking operations. The package performs no
// cross-call serialization of its own beyond keeping each handle's cached
// state consistent; callers sharing one Process between goroutines
// synchronize themselves.
package subprocess
