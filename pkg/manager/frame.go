package manager

import (
	"bytes"
	"strings"
)

// Константы wire-формата AMI.
const (
	crlf     = "\r\n"
	blockEnd = "\r\n\r\n"

	// greetingPrefix - приветственный баннер, который Asterisk отправляет
	// один раз сразу после установки TCP соединения.
	greetingPrefix = "Asterisk Call Manager"
)

// Виды кадров. Вид определяется ключом первой распознанной строки блока.
const (
	frameResponse = "response"
	frameEvent    = "event"
)

// Frame представляет один разобранный блок протокола AMI: упорядоченный
// набор заголовков "ключ: значение", завершённый пустой строкой.
//
// Ключи нормализуются при разборе (нижний регистр, дефисы удалены),
// поэтому поиск значения не зависит от регистра и пунктуации:
// "Action-ID", "ActionID" и "actionid" эквивалентны.
//
// Frame живёт только на время диспетчеризации одного блока.
type Frame struct {
	kind    string
	headers map[string]string
}

// Kind возвращает вид кадра: "response", "event" или другое значение
// первого ключа блока. Кадры неизвестного вида молча отбрасываются.
func (f *Frame) Kind() string { return f.kind }

// Get возвращает значение заголовка. Ключ нормализуется перед поиском.
// Для отсутствующего заголовка возвращается пустая строка.
func (f *Frame) Get(key string) string {
	return f.headers[normalizeHeaderKey(key)]
}

// Headers возвращает копию всех заголовков кадра с нормализованными ключами.
func (f *Frame) Headers() map[string]string {
	out := make(map[string]string, len(f.headers))
	for k, v := range f.headers {
		out[k] = v
	}
	return out
}

// normalizeHeaderKey приводит ключ заголовка к канонической форме:
// нижний регистр, внутренние дефисы удалены.
func normalizeHeaderKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(key), "-", "")
}

// frameReader накапливает произвольные куски байт транспорта и нарезает их
// на кадры. Частичные блоки сохраняются в буфере между вызовами Feed,
// поэтому разбиение потока на куски не влияет на результат.
type frameReader struct {
	buf []byte
	// greetingDone - баннер уже обработан (или его не было)
	greetingDone bool
}

func newFrameReader() *frameReader {
	return &frameReader{}
}

// Feed добавляет очередной кусок байт и возвращает все полностью
// накопленные кадры, ноль или больше. Никогда не блокируется.
func (r *frameReader) Feed(chunk []byte) []*Frame {
	r.buf = append(r.buf, chunk...)

	// Баннер сервера занимает ровно одну строку и приходит только при
	// первом подключении. Решение о его наличии можно принять лишь когда
	// в буфере есть конец первой строки.
	if !r.greetingDone {
		i := bytes.Index(r.buf, []byte(crlf))
		if i < 0 {
			return nil
		}
		if bytes.HasPrefix(r.buf, []byte(greetingPrefix)) {
			r.buf = r.buf[i+len(crlf):]
		}
		r.greetingDone = true
	}

	var frames []*Frame
	for {
		i := bytes.Index(r.buf, []byte(blockEnd))
		if i < 0 {
			break
		}
		block := r.buf[:i]
		r.buf = r.buf[i+len(blockEnd):]
		frames = append(frames, parseFrame(block))
	}
	return frames
}

// parseFrame разбирает сырой блок (без завершающего разделителя) в Frame.
// Строка делится на пару по первому вхождению ": "; строки без разделителя
// игнорируются - пустые и мусорные строки не являются ошибкой.
// Ключ первой успешно разобранной строки становится видом кадра.
func parseFrame(block []byte) *Frame {
	lines := strings.Split(string(block), crlf)
	f := &Frame{headers: make(map[string]string, len(lines))}
	for _, line := range lines {
		idx := strings.Index(line, ": ")
		if idx < 0 {
			continue
		}
		key := normalizeHeaderKey(line[:idx])
		if f.kind == "" {
			f.kind = key
		}
		f.headers[key] = line[idx+2:]
	}
	return f
}
