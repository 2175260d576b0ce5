// Package lyrics 将 LRC 文本转换为 Subsonic structuredLyrics 结构
package lyrics

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"AginMusic/model"
)

var (
	// 元数据标签，例如 [ar:xxx] [ti:xxx] [offset:500]
	metaTagRe   = regexp.MustCompile(`^\[[a-zA-Z]{2,}:[\s\S]*\]$`)
	timestampRe = regexp.MustCompile(`\[(\d+):(\d{2})(?:\.(\d{1,3}))?\]`)
)

type syncedLine struct {
	start int64
	value string
	idx   int
}

// Parse 解析 LRC 文本。只要有一行带时间戳，就只返回带时间戳的行，
// 每个时间戳一条，按开始时间再按出现顺序排序；否则按原顺序返回所有非标签行
func Parse(lrc string) (synced bool, lines []model.LyricLine) {
	rawLines := splitLines(lrc)

	var timed []syncedLine
	idx := 0
	for _, raw := range rawLines {
		if metaTagRe.MatchString(raw) {
			continue
		}

		matches := timestampRe.FindAllStringSubmatch(raw, -1)
		if len(matches) == 0 {
			continue
		}

		value := strings.TrimSpace(timestampRe.ReplaceAllString(raw, ""))
		if value == "" {
			continue
		}

		for _, m := range matches {
			start, ok := toMillis(m[1], m[2], m[3])
			if !ok {
				continue
			}
			timed = append(timed, syncedLine{start: start, value: value, idx: idx})
			idx++
		}
	}

	if len(timed) > 0 {
		sort.SliceStable(timed, func(i, j int) bool {
			if timed[i].start != timed[j].start {
				return timed[i].start < timed[j].start
			}
			return timed[i].idx < timed[j].idx
		})

		lines = make([]model.LyricLine, 0, len(timed))
		for _, l := range timed {
			start := l.start
			lines = append(lines, model.LyricLine{Value: l.value, Start: &start})
		}
		return true, lines
	}

	for _, raw := range rawLines {
		if metaTagRe.MatchString(raw) {
			continue
		}
		lines = append(lines, model.LyricLine{Value: raw})
	}
	return false, lines
}

// ToStructured 将 Parse 结果包装为 getLyrics 的返回结构，没有歌词行时返回 nil
func ToStructured(lrc string) *model.StructuredLyrics {
	synced, lines := Parse(lrc)
	if len(lines) == 0 {
		return nil
	}
	return &model.StructuredLyrics{
		Lang:   "zh",
		Synced: synced,
		Line:   lines,
	}
}

func splitLines(lrc string) []string {
	parts := strings.Split(lrc, "\n")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// toMillis 将 mm:ss.xxx 转换为毫秒；一位小数按百毫秒，两位按十毫秒
func toMillis(minStr, secStr, fracStr string) (int64, bool) {
	minutes, err := strconv.ParseInt(minStr, 10, 64)
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseInt(secStr, 10, 64)
	if err != nil {
		return 0, false
	}

	var ms int64
	if fracStr != "" {
		frac, err := strconv.ParseInt(fracStr, 10, 64)
		if err != nil {
			return 0, false
		}
		switch len(fracStr) {
		case 1:
			ms = frac * 100
		case 2:
			ms = frac * 10
		default:
			ms = frac
		}
	}

	return minutes*60_000 + seconds*1000 + ms, true
}
