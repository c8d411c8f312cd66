// Package pipeline 提供校验器/转换器的声明式组合框架。
// 适配器用它拼装音频处理流水线，避免重复书写"顺序执行、首错即停"的样板。
package pipeline

// Validator 校验器: 只放行或拒绝，绝不修改输入
type Validator[T any] interface {
	Validate(input T) error
}

// ValidatorFunc 函数形式的校验器
type ValidatorFunc[T any] func(input T) error

func (f ValidatorFunc[T]) Validate(input T) error {
	return f(input)
}

// ChainValidators 按注册顺序依次执行各校验器，首个失败即中止。
// 等价于对"输入可接受"做逻辑与。
func ChainValidators[T any](validators ...Validator[T]) Validator[T] {
	return ValidatorFunc[T](func(input T) error {
		for _, v := range validators {
			if err := v.Validate(input); err != nil {
				return err
			}
		}
		return nil
	})
}

// Converter 转换器: 执行一次可能失败的变换
type Converter[F, T any] interface {
	Convert(input F) (T, error)
}

// ConverterFunc 函数形式的转换器
type ConverterFunc[F, T any] func(input F) (T, error)

func (f ConverterFunc[F, T]) Convert(input F) (T, error) {
	return f(input)
}

// Compose 串联两个转换器: 前者的输出作为后者的输入，首个失败即中止
func Compose[A, B, C any](first Converter[A, B], second Converter[B, C]) Converter[A, C] {
	return ConverterFunc[A, C](func(input A) (C, error) {
		mid, err := first.Convert(input)
		if err != nil {
			var zero C
			return zero, err
		}
		return second.Convert(mid)
	})
}

// Chain 串联任意多个同类型转换器
func Chain[T any](stages ...Converter[T, T]) Converter[T, T] {
	return ConverterFunc[T, T](func(input T) (T, error) {
		current := input
		for _, stage := range stages {
			next, err := stage.Convert(current)
			if err != nil {
				var zero T
				return zero, err
			}
			current = next
		}
		return current, nil
	})
}

// Validated 将校验器提升为恒等转换器，便于插入转换链
func Validated[T any](validator Validator[T]) Converter[T, T] {
	return ConverterFunc[T, T](func(input T) (T, error) {
		if err := validator.Validate(input); err != nil {
			var zero T
			return zero, err
		}
		return input, nil
	})
}
