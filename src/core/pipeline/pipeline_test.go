package pipeline

import (
	"errors"
	"strings"
	"testing"
)

func TestChainValidators(t *testing.T) {
	rejectEmpty := ValidatorFunc[string](func(s string) error {
		if s == "" {
			return errors.New("空字符串")
		}
		return nil
	})
	rejectLong := ValidatorFunc[string](func(s string) error {
		if len(s) > 5 {
			return errors.New("过长")
		}
		return nil
	})

	chain := ChainValidators[string](rejectEmpty, rejectLong)

	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "全部通过", input: "abc", wantErr: ""},
		{name: "首个校验器失败即中止", input: "", wantErr: "空字符串"},
		{name: "后续校验器失败", input: "abcdefg", wantErr: "过长"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := chain.Validate(tt.input)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("期望通过，实际错误: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("错误 = %v, want %s", err, tt.wantErr)
			}
		})
	}
}

func TestChainValidators_ShortCircuit(t *testing.T) {
	called := false
	failing := ValidatorFunc[int](func(int) error { return errors.New("失败") })
	recording := ValidatorFunc[int](func(int) error {
		called = true
		return nil
	})

	_ = ChainValidators[int](failing, recording).Validate(1)
	if called {
		t.Error("首个校验器失败后不应执行后续校验器")
	}
}

func TestCompose(t *testing.T) {
	atoi := ConverterFunc[string, int](func(s string) (int, error) {
		if s == "bad" {
			return 0, errors.New("无法解析")
		}
		return len(s), nil
	})
	double := ConverterFunc[int, int](func(n int) (int, error) {
		return n * 2, nil
	})

	composed := Compose[string, int, int](atoi, double)

	t.Run("输出作为下一阶段输入", func(t *testing.T) {
		out, err := composed.Convert("abc")
		if err != nil {
			t.Fatalf("Convert返回错误: %v", err)
		}
		if out != 6 {
			t.Errorf("输出 = %d, want 6", out)
		}
	})

	t.Run("首个阶段失败即中止", func(t *testing.T) {
		_, err := composed.Convert("bad")
		if err == nil || err.Error() != "无法解析" {
			t.Errorf("错误 = %v, want 无法解析", err)
		}
	})
}

func TestChain(t *testing.T) {
	upper := ConverterFunc[string, string](func(s string) (string, error) {
		return strings.ToUpper(s), nil
	})
	exclaim := ConverterFunc[string, string](func(s string) (string, error) {
		return s + "!", nil
	})
	failing := ConverterFunc[string, string](func(s string) (string, error) {
		return "", errors.New("阶段失败")
	})

	t.Run("按顺序执行所有阶段", func(t *testing.T) {
		out, err := Chain[string](upper, exclaim).Convert("hello")
		if err != nil {
			t.Fatalf("Convert返回错误: %v", err)
		}
		if out != "HELLO!" {
			t.Errorf("输出 = %s, want HELLO!", out)
		}
	})

	t.Run("中间阶段失败即中止", func(t *testing.T) {
		_, err := Chain[string](upper, failing, exclaim).Convert("hello")
		if err == nil || err.Error() != "阶段失败" {
			t.Errorf("错误 = %v, want 阶段失败", err)
		}
	})

	t.Run("空链为恒等变换", func(t *testing.T) {
		out, err := Chain[string]().Convert("same")
		if err != nil || out != "same" {
			t.Errorf("空链应原样返回: %s, %v", out, err)
		}
	})
}

func TestValidated(t *testing.T) {
	rejectNegative := ValidatorFunc[int](func(n int) error {
		if n < 0 {
			return errors.New("负数")
		}
		return nil
	})

	conv := Validated[int](rejectNegative)

	out, err := conv.Convert(7)
	if err != nil || out != 7 {
		t.Errorf("通过校验时应原样返回: %d, %v", out, err)
	}

	if _, err := conv.Convert(-1); err == nil {
		t.Error("未通过校验时应返回错误")
	}
}
