package cstring

// Buffer - текстовый буфер фиксированной емкости (включая терминатор).
// Любая последовательность Copy/Concat оставляет в нем не более Cap()-1 байт текста.
type Buffer struct {
	b []byte
}

// NewBuffer создает пустой буфер емкостью size байт.
// При size <= 0 буфер нулевой емкости: все операции над ним ничего не делают.
func NewBuffer(size int) *Buffer {
	if size <= 0 {
		return &Buffer{}
	}
	return &Buffer{b: make([]byte, size)}
}

// Copy заменяет содержимое буфера на s.
func (b *Buffer) Copy(s string) *Buffer {
	if len(b.b) > 0 {
		copyText(b.b, []byte(s))
	}
	return b
}

// Concat дописывает s к содержимому буфера.
func (b *Buffer) Concat(s string) *Buffer {
	if len(b.b) > 0 {
		concatText(b.b, []byte(s))
	}
	return b
}

// Reset очищает буфер.
func (b *Buffer) Reset() {
	clear(b.b)
}

func (b *Buffer) Len() int { return Len(b.b) }

func (b *Buffer) Cap() int { return len(b.b) }

// Full сообщает, что дальнейший Concat ничего не добавит.
func (b *Buffer) Full() bool {
	return len(b.b) == 0 || b.Len() >= len(b.b)-1
}

func (b *Buffer) String() string {
	return String(b.b)
}

// Bytes возвращает текст вместе с терминатором - в таком виде он уходит в журнал.
// Для буфера нулевой емкости возвращает nil.
func (b *Buffer) Bytes() []byte {
	if len(b.b) == 0 {
		return nil
	}
	n := b.Len()
	if n == len(b.b) {
		n--
		b.b[n] = 0
	}
	out := make([]byte, n+1)
	copy(out, b.b[:n+1])
	return out
}
