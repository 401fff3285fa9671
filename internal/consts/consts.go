package consts

import "runtime"

// 链标识（与存储层 blockchain_id 字段一致）
const (
	ChainIDSolana   uint32 = 100000
	ChainIDEthereum uint32 = 200000
)

// CpuCount 表示逻辑 CPU 核心数，用于控制并发任务调度上限
var CpuCount = runtime.NumCPU()
