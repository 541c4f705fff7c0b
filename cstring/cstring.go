// Package cstring содержит ограниченные операции над NUL-терминированным текстом
// в буферах фиксированного размера, как их ожидает журнал контроллера.
//
// Емкость буфера - это len(dst) вместе с терминатором. Переполнение никогда не
// сигнализируется: текст молча обрезается до len(dst)-1 байт.
package cstring

// Len возвращает длину текста в b: позицию первого NUL или len(b), если терминатора нет.
func Len(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return len(b)
}

// String возвращает текст из b без терминатора.
func String(b []byte) string {
	return string(b[:Len(b)])
}

// Copy копирует текст src в dst, но не более len(dst)-1 байт, и всегда ставит терминатор.
// При dst == nil, src == nil или нулевой емкости ничего не записывается.
func Copy(dst, src []byte) []byte {
	if dst == nil || src == nil || len(dst) == 0 {
		return dst
	}
	copyText(dst, src)
	return dst
}

// Concat дописывает текст src к тексту в dst в пределах len(dst), обрезая лишнее.
// Если dst уже заполнен, только переустанавливается терминатор.
func Concat(dst, src []byte) []byte {
	if dst == nil || src == nil || len(dst) == 0 {
		return dst
	}
	concatText(dst, src)
	return dst
}

func copyText(dst, src []byte) {
	n := min(Len(src), len(dst)-1)
	copy(dst, src[:n])
	dst[n] = 0
}

func concatText(dst, src []byte) {
	used := Len(dst)
	if used >= len(dst)-1 {
		dst[len(dst)-1] = 0
		return
	}
	copyText(dst[used:], src)
}
