package model

/*
#include <onnxruntime_c_api.h>
#include <stdlib.h>
#include <string.h>

static const OrtApi* ort_api() {
    return OrtGetApiBase()->GetApi(ORT_API_VERSION);
}

static OrtStatus* ort_create_env(const OrtApi* api, const char* name, OrtEnv** out) {
    return api->CreateEnv(ORT_LOGGING_LEVEL_WARNING, name, out);
}

// Session options here only ever need the two thread-pool knobs; this
// pipeline never touches graph optimization level, execution providers, or
// any of the other dozen OrtSessionOptions setters.
static OrtStatus* ort_create_session_options(const OrtApi* api, int intra_op_threads,
    int inter_op_threads, OrtSessionOptions** out) {
    OrtStatus* status = api->CreateSessionOptions(out);
    if (status) return status;
    if (intra_op_threads > 0) {
        status = api->SetIntraOpNumThreads(*out, intra_op_threads);
        if (status) return status;
    }
    if (inter_op_threads > 0) {
        status = api->SetInterOpNumThreads(*out, inter_op_threads);
        if (status) return status;
    }
    return NULL;
}

static OrtStatus* ort_create_session_from_memory(const OrtApi* api, OrtEnv* env,
    const void* model_data, size_t model_data_len, OrtSessionOptions* opts, OrtSession** out) {
    return api->CreateSessionFromArray(env, model_data, model_data_len, opts, out);
}

static OrtStatus* ort_create_cpu_memory_info(const OrtApi* api, OrtMemoryInfo** out) {
    return api->CreateCpuMemoryInfo(OrtArenaAllocator, OrtMemTypeDefault, out);
}

static OrtStatus* ort_create_tensor_float(const OrtApi* api, OrtMemoryInfo* info,
    float* data, size_t data_len, int64_t* shape, size_t shape_len, OrtValue** out) {
    return api->CreateTensorWithDataAsOrtValue(info, data, data_len * sizeof(float),
        shape, shape_len, ONNX_TENSOR_ELEMENT_DATA_TYPE_FLOAT, out);
}

// ort_run_single runs a session with exactly one input and one output,
// unlike the general OrtApi::Run signature which takes arrays of either.
static OrtStatus* ort_run_single(const OrtApi* api, OrtSession* session,
    const char* input_name, const OrtValue* input,
    const char* output_name, OrtValue** output) {
    const char* input_names[1] = { input_name };
    const OrtValue* inputs[1] = { input };
    const char* output_names[1] = { output_name };
    OrtValue* outputs[1] = { NULL };
    OrtStatus* status = api->Run(session, NULL, input_names, inputs, 1,
        output_names, 1, outputs);
    if (status) return status;
    *output = outputs[0];
    return NULL;
}

static OrtStatus* ort_get_tensor_float_data(const OrtApi* api, OrtValue* value, float** out) {
    return api->GetTensorMutableData(value, (void**)out);
}

static OrtStatus* ort_get_tensor_ndim(const OrtApi* api, OrtValue* value, size_t* ndim) {
    OrtTensorTypeAndShapeInfo* info;
    OrtStatus* status = api->GetTensorTypeAndShape(value, &info);
    if (status) return status;
    status = api->GetDimensionsCount(info, ndim);
    api->ReleaseTensorTypeAndShapeInfo(info);
    return status;
}

static OrtStatus* ort_get_tensor_shape(const OrtApi* api, OrtValue* value,
    int64_t* shape, size_t shape_len) {
    OrtTensorTypeAndShapeInfo* info;
    OrtStatus* status = api->GetTensorTypeAndShape(value, &info);
    if (status) return status;
    status = api->GetDimensions(info, shape, shape_len);
    api->ReleaseTensorTypeAndShapeInfo(info);
    return status;
}

static const char* ort_error_message(const OrtApi* api, OrtStatus* status) {
    return api->GetErrorMessage(status);
}

static void ort_release_status(const OrtApi* api, OrtStatus* status) { api->ReleaseStatus(status); }
static void ort_release_env(const OrtApi* api, OrtEnv* env) { api->ReleaseEnv(env); }
static void ort_release_session(const OrtApi* api, OrtSession* s) { api->ReleaseSession(s); }
static void ort_release_session_options(const OrtApi* api, OrtSessionOptions* o) { api->ReleaseSessionOptions(o); }
static void ort_release_memory_info(const OrtApi* api, OrtMemoryInfo* i) { api->ReleaseMemoryInfo(i); }
static void ort_release_value(const OrtApi* api, OrtValue* v) { api->ReleaseValue(v); }
*/
import "C"

import (
	"fmt"
	"os"
	"runtime"
	"unsafe"
)

func api() *C.OrtApi {
	return C.ort_api()
}

func checkStatus(status *C.OrtStatus) error {
	if status == nil {
		return nil
	}
	msg := C.GoString(C.ort_error_message(api(), status))
	C.ort_release_status(api(), status)
	return fmt.Errorf("model: %s", msg)
}

// ortEnv is the ONNX Runtime environment, shared by every session an Env
// loads. Thread counts are fixed at creation since this pipeline's four
// model kinds all run on the same small number of CPU cores and don't
// benefit from per-model tuning.
type ortEnv struct {
	env            *C.OrtEnv
	intraOpThreads int
	interOpThreads int
}

func newOrtEnv(name string, intraOpThreads, interOpThreads int) (*ortEnv, error) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	var env *C.OrtEnv
	if err := checkStatus(C.ort_create_env(api(), cName, &env)); err != nil {
		return nil, err
	}

	e := &ortEnv{env: env, intraOpThreads: intraOpThreads, interOpThreads: interOpThreads}
	runtime.SetFinalizer(e, (*ortEnv).close)
	return e, nil
}

func (e *ortEnv) newSession(modelData []byte) (*ortSession, error) {
	if len(modelData) == 0 {
		return nil, fmt.Errorf("model: empty model data")
	}

	var opts *C.OrtSessionOptions
	if err := checkStatus(C.ort_create_session_options(api(), C.int(e.intraOpThreads), C.int(e.interOpThreads), &opts)); err != nil {
		return nil, err
	}
	defer C.ort_release_session_options(api(), opts)

	var session *C.OrtSession
	if err := checkStatus(C.ort_create_session_from_memory(
		api(), e.env,
		unsafe.Pointer(&modelData[0]), C.size_t(len(modelData)),
		opts, &session,
	)); err != nil {
		return nil, err
	}

	s := &ortSession{session: session, pinned: modelData}
	runtime.SetFinalizer(s, (*ortSession).close)
	return s, nil
}

func (e *ortEnv) close() error {
	if e.env != nil {
		C.ort_release_env(api(), e.env)
		e.env = nil
		runtime.SetFinalizer(e, nil)
	}
	return nil
}

// ortSession holds a loaded ONNX model. Unlike a general-purpose binding it
// only ever runs with exactly one named input and one named output, the
// only shape any model in this pipeline needs.
type ortSession struct {
	session *C.OrtSession
	pinned  any // prevents GC of model data
}

func loadOrtSessionFile(env *ortEnv, path string) (*ortSession, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("model: read model %s: %w", path, err)
	}
	return env.newSession(data)
}

// run executes inference on a single float32 input tensor of inputShape and
// returns the output's flat data and its shape.
func (s *ortSession) run(inputName string, inputShape []int64, input []float32, outputName string) ([]float32, []int64, error) {
	inTensor, err := newFloatTensor(inputShape, input)
	if err != nil {
		return nil, nil, fmt.Errorf("model: build input tensor: %w", err)
	}
	defer inTensor.close()

	cInputName := C.CString(inputName)
	defer C.free(unsafe.Pointer(cInputName))
	cOutputName := C.CString(outputName)
	defer C.free(unsafe.Pointer(cOutputName))

	var outValue *C.OrtValue
	if err := checkStatus(C.ort_run_single(api(), s.session, cInputName, inTensor.value, cOutputName, &outValue)); err != nil {
		return nil, nil, err
	}
	outTensor := &tensor{value: outValue}
	runtime.SetFinalizer(outTensor, (*tensor).close)
	defer outTensor.close()

	shape, err := outTensor.shape()
	if err != nil {
		return nil, nil, fmt.Errorf("model: read output shape: %w", err)
	}
	data, err := outTensor.floatData()
	if err != nil {
		return nil, nil, fmt.Errorf("model: read output data: %w", err)
	}
	return data, shape, nil
}

func (s *ortSession) close() error {
	if s.session != nil {
		C.ort_release_session(api(), s.session)
		s.session = nil
		runtime.SetFinalizer(s, nil)
	}
	return nil
}

// tensor wraps a single OrtValue holding float32 data. Every model this
// pipeline runs takes one float32 input tensor and produces one float32
// output tensor, so this never needs a dtype tag or integer-tensor support.
type tensor struct {
	value  *C.OrtValue
	pinned any // prevents GC of external data backing value
}

func newFloatTensor(shape []int64, data []float32) (*tensor, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("model: empty tensor data")
	}

	total := int64(1)
	for _, d := range shape {
		total *= d
	}
	if int64(len(data)) < total {
		return nil, fmt.Errorf("model: tensor data too short: got %d, need %d", len(data), total)
	}

	var memInfo *C.OrtMemoryInfo
	if err := checkStatus(C.ort_create_cpu_memory_info(api(), &memInfo)); err != nil {
		return nil, err
	}
	defer C.ort_release_memory_info(api(), memInfo)

	var shapePtr *C.int64_t
	if len(shape) > 0 {
		shapePtr = (*C.int64_t)(unsafe.Pointer(&shape[0]))
	}

	var value *C.OrtValue
	if err := checkStatus(C.ort_create_tensor_float(
		api(), memInfo,
		(*C.float)(unsafe.Pointer(&data[0])),
		C.size_t(len(data)),
		shapePtr,
		C.size_t(len(shape)),
		&value,
	)); err != nil {
		return nil, err
	}

	t := &tensor{value: value, pinned: data}
	runtime.SetFinalizer(t, (*tensor).close)
	return t, nil
}

func (t *tensor) floatData() ([]float32, error) {
	var ptr *C.float
	if err := checkStatus(C.ort_get_tensor_float_data(api(), t.value, &ptr)); err != nil {
		return nil, err
	}

	shape, err := t.shape()
	if err != nil {
		return nil, err
	}

	total := 1
	for _, d := range shape {
		total *= int(d)
	}
	if total <= 0 {
		return nil, nil
	}

	out := make([]float32, total)
	C.memcpy(unsafe.Pointer(&out[0]), unsafe.Pointer(ptr), C.size_t(total*4))
	return out, nil
}

func (t *tensor) shape() ([]int64, error) {
	var ndim C.size_t
	if err := checkStatus(C.ort_get_tensor_ndim(api(), t.value, &ndim)); err != nil {
		return nil, err
	}
	if ndim == 0 {
		return nil, nil
	}
	shape := make([]int64, int(ndim))
	if err := checkStatus(C.ort_get_tensor_shape(api(), t.value, (*C.int64_t)(unsafe.Pointer(&shape[0])), ndim)); err != nil {
		return nil, err
	}
	return shape, nil
}

func (t *tensor) close() error {
	if t.value != nil {
		C.ort_release_value(api(), t.value)
		t.value = nil
		runtime.SetFinalizer(t, nil)
	}
	return nil
}
