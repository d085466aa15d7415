package services

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"
)

// CaptchaService 生成注册页的算术验证题, 可被多个请求并发使用
type CaptchaService struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCaptchaService() *CaptchaService {
	return NewCaptchaServiceWithSeed(time.Now().UnixNano())
}

func NewCaptchaServiceWithSeed(seed int64) *CaptchaService {
	return &CaptchaService{rnd: rand.New(rand.NewSource(seed))}
}

// Generate returns a question such as "3 + 5" and its answer. The answer
// is kept in the session, the question is shown on the form.
func (s *CaptchaService) Generate() (string, int) {
	s.mu.Lock()
	a := s.rnd.Intn(10)
	b := s.rnd.Intn(10)
	add := s.rnd.Intn(2) == 0
	s.mu.Unlock()

	if add {
		return fmt.Sprintf("%d + %d", a, b), a + b
	}
	// 减法保证结果非负
	if a < b {
		a, b = b, a
	}
	return fmt.Sprintf("%d - %d", a, b), a - b
}

// CheckAnswer compares user input with the expected answer.
func CheckAnswer(expected int, input string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	return err == nil && n == expected
}
