package ports

// Hasher defines the interface for computing content hashes of build steps.
//
//go:generate mockgen -destination=mocks/hasher_mock.go -package=mocks -source=hasher.go
type Hasher interface {
	// ComputeInputHash hashes the argv of a command together with the content of
	// every input file. A missing input is an error.
	ComputeInputHash(argv, inputs []string) (string, error)

	// ComputeOutputHash hashes the content of the given output files.
	// A missing output is an error.
	ComputeOutputHash(outputs []string) (string, error)
}
