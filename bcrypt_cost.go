//go:build !race

package gate

func passwordHashCost() int {
	return 14
}
