package assert

import "fmt"

func NotNil(value any) {
	if value == nil {
		panic("expected value to be not nil")
	}
}

func Positive[T ~int | ~int64](value T) {
	if value <= 0 {
		panic(fmt.Sprintf("expected value to be positive, got %d", value))
	}
}
