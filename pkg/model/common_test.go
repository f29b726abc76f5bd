package model

import (
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "零点", input: "00:00", want: 0},
		{name: "上午", input: "08:30", want: 510},
		{name: "日终", input: "24:00", want: 1440},
		{name: "分钟越界", input: "10:60", wantErr: true},
		{name: "小时越界", input: "25:00", wantErr: true},
		{name: "日终带分钟", input: "24:30", wantErr: true},
		{name: "缺少冒号", input: "0830", wantErr: true},
		{name: "非数字", input: "ab:cd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClock(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseClock(%q) 应返回错误", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseClock(%q) 返回错误: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseClock(%q) = %d, 期望 %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(510); got != "08:30" {
		t.Errorf("FormatClock(510) = %q, 期望 08:30", got)
	}
	if got := FormatClock(0); got != "00:00" {
		t.Errorf("FormatClock(0) = %q, 期望 00:00", got)
	}
}

func TestTimeWindowOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b TimeWindow
		want bool
	}{
		{name: "部分重叠", a: TimeWindow{Start: 480, End: 960}, b: TimeWindow{Start: 900, End: 1200}, want: true},
		{name: "完全包含", a: TimeWindow{Start: 480, End: 960}, b: TimeWindow{Start: 540, End: 600}, want: true},
		{name: "首尾相接", a: TimeWindow{Start: 480, End: 960}, b: TimeWindow{Start: 960, End: 1200}, want: false},
		{name: "互不相交", a: TimeWindow{Start: 480, End: 600}, b: TimeWindow{Start: 900, End: 1200}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("%s.Overlaps(%s) = %v, 期望 %v", tt.a, tt.b, got, tt.want)
			}
			// 重叠关系对称
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("%s.Overlaps(%s) = %v, 期望 %v", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestTimeWindowOverlapMinutes(t *testing.T) {
	a := TimeWindow{Start: 480, End: 960}
	if got := a.OverlapMinutes(TimeWindow{Start: 900, End: 1200}); got != 60 {
		t.Errorf("重叠分钟数 = %d, 期望 60", got)
	}
	if got := a.OverlapMinutes(TimeWindow{Start: 1000, End: 1200}); got != 0 {
		t.Errorf("不相交窗口重叠分钟数 = %d, 期望 0", got)
	}
}

func TestParseWeekday(t *testing.T) {
	d, err := ParseWeekday("monday")
	if err != nil {
		t.Fatalf("ParseWeekday 返回错误: %v", err)
	}
	if d != time.Monday {
		t.Errorf("ParseWeekday(monday) = %v, 期望 Monday", d)
	}

	if _, err := ParseWeekday("someday"); err == nil {
		t.Error("未知星期名应返回错误")
	}
}
