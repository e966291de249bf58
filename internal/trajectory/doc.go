// Package trajectory reads and writes LAMMPS text dumps.
//
// Reading happens in two stages:
//
//   - [BuildIndex] makes one streaming pass and records the static atom
//     columns (id, mol, type), the box, and the byte offset of each frame.
//   - [Loader] parses single frames from those offsets on demand. It reads
//     through an io.ReaderAt, so frames can be loaded concurrently.
//
// [Open] combines both for a file on disk and transparently inflates gzip
// and zstd inputs. [Writer] produces the same format.
//
// # Atom order
//
// Every frame must contain the atom set of the first frame. Rows are matched
// to index positions by atom id, so their order inside a frame is free.
package trajectory
