package stats

import "sync"

// unitPence 以 £1 押注為一個單位，單位內以便士計。
const unitPence = 100

// WinBuckets 依「每 £1 押注贏得的便士數」把一回合的贏分分桶。
type WinBuckets struct {
	winBucket    []int // 贏倍邊界
	winBucketStr []string

	once sync.Once
	lut  []int // lut[pence] = idx，只建到最後一個邊界
}

// Buckets
//
// 用來快速定位一回合贏分 -> DistRecord 位置 O(1)
//
// 請勿修改預設值
//   - win區間: 贏倍區間 [0,0], (0,1), [1,2), [2,5), ..., [100,300), [300, +inf)
//   - 負值（backboard 付費大於收入）歸在 [0,0]
var Buckets = &WinBuckets{
	winBucket:    []int{0, 1, 2, 5, 10, 20, 50, 100, 300},
	winBucketStr: []string{"[0,0]", "(0,1)", "[1,2)", "[2,5)", "[5,10)", "[10,20)", "[20,50)", "[50,100)", "[100,300)", "[300,+inf)"},
}

func (b *WinBuckets) WinBucketStr() []string {
	return b.winBucketStr
}

// Len 回傳分桶數。
func (b *WinBuckets) Len() int {
	return len(b.winBucketStr)
}

func (b *WinBuckets) build() {
	last := len(b.winBucket) - 1
	maxLut := b.winBucket[last] * unitPence
	lut := make([]int, maxLut)
	idx := 1
	for i := 1; i < maxLut; i++ {
		for idx < last && i >= b.winBucket[idx]*unitPence {
			idx++
		}
		lut[i] = idx
	}
	b.lut = lut
}

// Index 回傳 perPound（每 £1 押注贏得的便士）所屬的分桶。可併發呼叫。
func (b *WinBuckets) Index(perPound int) int {
	b.once.Do(b.build)
	if perPound <= 0 {
		return 0
	}
	if perPound >= len(b.lut) {
		return len(b.winBucketStr) - 1
	}
	return b.lut[perPound]
}
