//go:build windows

package webgpu

// WGSL compute shaders for the array namespace.
// Using string constants instead of embed for simplicity.
//
// Element-wise kernels index with gid.x + gid.y*params.stride so that launches
// over more than 65535 workgroups fold into a second grid dimension. Tiled
// kernels fold rows into gid.z the same way.

// binaryShader applies op(a, b) with b broadcast according to params.mode:
// 0 same shape, 1 row [1, C], 2 column [R, 1], 3 scalar.
// params.op selects 0 add, 1 sub, 2 mul.
const binaryShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    cols: u32,
    mode: u32,
    op: u32,
    stride: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x + global_id.y * params.stride;
    if (idx >= params.size) {
        return;
    }

    var b_idx: u32 = idx;
    if (params.mode == 1u) {
        b_idx = idx % params.cols;
    } else if (params.mode == 2u) {
        b_idx = idx / params.cols;
    } else if (params.mode == 3u) {
        b_idx = 0u;
    }

    let x = a[idx];
    let y = b[b_idx];
    if (params.op == 0u) {
        result[idx] = x + y;
    } else if (params.op == 1u) {
        result[idx] = x - y;
    } else {
        result[idx] = x * y;
    }
}
`

// scaleShader multiplies every element by a scalar.
const scaleShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    stride: u32,
    scalar: f32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x + global_id.y * params.stride;
    if (idx < params.size) {
        result[idx] = input[idx] * params.scalar;
    }
}
`

// matmulShader performs matrix multiplication: C = A @ B.
// A is [M, K], B is [K, N], C is [M, N].
const matmulShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    M: u32,  // rows of A and C
    K: u32,  // cols of A, rows of B
    N: u32,  // cols of B and C
    row_stride: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(16, 16)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let row = global_id.y + global_id.z * params.row_stride;
    let col = global_id.x;

    if (row >= params.M || col >= params.N) {
        return;
    }

    var sum: f32 = 0.0;
    for (var k: u32 = 0u; k < params.K; k = k + 1u) {
        sum = sum + a[row * params.K + k] * b[k * params.N + col];
    }

    result[row * params.N + col] = sum;
}
`

// transposeShader transposes a 2D matrix.
const transposeShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    rows: u32,
    cols: u32,
    row_stride: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(16, 16)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let row = global_id.y + global_id.z * params.row_stride;
    let col = global_id.x;

    if (row >= params.rows || col >= params.cols) {
        return;
    }

    result[col * params.rows + row] = input[row * params.cols + col];
}
`

// reduceShader computes mean (op 0) or first-index argmax (op 1) of a
// [rows, cols] matrix. dim 1 gives one output per row, dim 0 one per column.
const reduceShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    rows: u32,
    cols: u32,
    dim: u32,
    op: u32,
    stride: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let out_idx = global_id.x + global_id.y * params.stride;

    var count: u32 = params.cols;
    var outputs: u32 = params.rows;
    var base: u32 = out_idx * params.cols;
    var step: u32 = 1u;
    if (params.dim == 0u) {
        count = params.rows;
        outputs = params.cols;
        base = out_idx;
        step = params.cols;
    }
    if (out_idx >= outputs) {
        return;
    }

    if (params.op == 0u) {
        var sum: f32 = 0.0;
        for (var i: u32 = 0u; i < count; i = i + 1u) {
            sum = sum + input[base + i * step];
        }
        result[out_idx] = sum / f32(count);
        return;
    }

    var best: u32 = 0u;
    var best_val: f32 = input[base];
    for (var i: u32 = 1u; i < count; i = i + 1u) {
        let v = input[base + i * step];
        if (v > best_val) {
            best_val = v;
            best = i;
        }
    }
    result[out_idx] = f32(best);
}
`

// frameShader copies overlapping windows of a signal into rows:
// result[f, j] = input[f*step + j].
const frameShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    frame: u32,
    hop: u32,
    stride: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x + global_id.y * params.stride;
    if (idx >= params.size) {
        return;
    }
    let f = idx / params.frame;
    let j = idx % params.frame;
    result[idx] = input[f * params.hop + j];
}
`
