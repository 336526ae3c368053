package utils

import "math"

// NormalizeAngle 将角度归一化到 [-π, π]
//
// 比例控制中的角度差必须先归一化：未归一化的差值在 ±π 边界会翻转符号，
// 导致力矩方向错误并引起失控振荡。
//
// 参数:
//   - angle: 任意弧度值
//
// 返回:
//   - float64: 等价角度，范围 [-π, π]
func NormalizeAngle(angle float64) float64 {
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return 0
	}
	// 大角度先取模，避免逐次加减 2π 的长循环
	if angle > 4*math.Pi || angle < -4*math.Pi {
		angle = math.Mod(angle, 2*math.Pi)
	}
	for angle > math.Pi {
		angle -= 2 * math.Pi
	}
	for angle < -math.Pi {
		angle += 2 * math.Pi
	}
	return angle
}

// AngleDiff 返回 target - current 的归一化差值
func AngleDiff(target, current float64) float64 {
	return NormalizeAngle(target - current)
}

// Clamp 将值限制在 [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp 线性插值，t=1 时精确返回 b
func Lerp(a, b, t float64) float64 {
	return (1-t)*a + t*b
}

// Sign 返回 -1、0 或 1
func Sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// ExpBlend 以固定比例将 current 向 target 指数逼近
// rate 取值 (0, 1]，1 表示一步到位
func ExpBlend(current, target, rate float64) float64 {
	rate = Clamp(rate, 0, 1)
	return current + (target-current)*rate
}
