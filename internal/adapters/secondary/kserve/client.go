package kserve

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"mlflow-registry-workflow/internal/config"
	"mlflow-registry-workflow/internal/core/domain"
	ports "mlflow-registry-workflow/internal/core/ports/output"
)

var inferenceServiceGVR = schema.GroupVersionResource{
	Group:    "serving.kserve.io",
	Version:  "v1beta1",
	Resource: "inferenceservices",
}

const (
	labelModelName    = "mlflow-registry-workflow/model-name"
	labelModelVersion = "mlflow-registry-workflow/model-version"
	mlflowModelFormat = "mlflow"
)

var invalidNameChars = regexp.MustCompile(`[^a-z0-9-]+`)

type kserveClient struct {
	client    dynamic.Interface
	enabled   bool
	defaultNS string
}

// NewInferenceCluster returns a KServe-backed cluster. A disabled config
// yields a client whose calls fail with ErrClusterNotConfigured.
func NewInferenceCluster(cfg *config.KubernetesConfig) (ports.InferenceCluster, error) {
	if !cfg.Enabled {
		return &kserveClient{enabled: false}, nil
	}

	var restCfg *rest.Config
	var err error

	if cfg.InCluster {
		restCfg, err = rest.InClusterConfig()
	} else if cfg.KubeConfigPath != "" {
		restCfg, err = clientcmd.BuildConfigFromFlags("", cfg.KubeConfigPath)
	} else {
		// Try default kubeconfig location
		home, _ := os.UserHomeDir()
		kubeconfig := filepath.Join(home, ".kube", "config")
		restCfg, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	}
	if err != nil {
		return nil, fmt.Errorf("build k8s config: %w", err)
	}

	client, err := dynamic.NewForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("create dynamic client: %w", err)
	}

	return newWithDynamic(client, cfg.DefaultNS), nil
}

func newWithDynamic(client dynamic.Interface, defaultNS string) *kserveClient {
	if defaultNS == "" {
		defaultNS = "model-serving"
	}
	return &kserveClient{
		client:    client,
		enabled:   true,
		defaultNS: defaultNS,
	}
}

func (c *kserveClient) IsAvailable() bool {
	return c.enabled
}

func (c *kserveClient) Deploy(ctx context.Context, namespace string, spec domain.ServeSpec) (*ports.InferenceDeployment, error) {
	if !c.enabled {
		return nil, domain.ErrClusterNotConfigured
	}
	if namespace == "" {
		namespace = c.defaultNS
	}

	obj := buildInferenceServiceCR(spec)

	created, err := c.client.Resource(inferenceServiceGVR).
		Namespace(namespace).
		Create(ctx, obj, metav1.CreateOptions{})
	if err != nil {
		return nil, fmt.Errorf("create kserve inferenceservice: %w", err)
	}

	return &ports.InferenceDeployment{
		Name:      created.GetName(),
		Namespace: namespace,
		UID:       string(created.GetUID()),
	}, nil
}

func (c *kserveClient) Undeploy(ctx context.Context, namespace, name string) error {
	if !c.enabled {
		return domain.ErrClusterNotConfigured
	}
	if namespace == "" {
		namespace = c.defaultNS
	}

	err := c.client.Resource(inferenceServiceGVR).
		Namespace(namespace).
		Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil {
		return fmt.Errorf("delete kserve inferenceservice: %w", err)
	}

	return nil
}

func (c *kserveClient) GetStatus(ctx context.Context, namespace, name string) (*ports.InferenceStatus, error) {
	if !c.enabled {
		return nil, domain.ErrClusterNotConfigured
	}
	if namespace == "" {
		namespace = c.defaultNS
	}

	obj, err := c.client.Resource(inferenceServiceGVR).
		Namespace(namespace).
		Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("get kserve inferenceservice: %w", err)
	}

	return parseStatus(obj), nil
}

// ResourceName derives a DNS-1035 name for a model version,
// e.g. rf_apples version 2 becomes rf-apples-v2.
func ResourceName(modelName, version string) string {
	name := invalidNameChars.ReplaceAllString(strings.ToLower(modelName), "-")
	name = strings.Trim(name, "-")
	if name == "" || name[0] < 'a' || name[0] > 'z' {
		name = "model-" + name
	}
	suffix := "-v" + version
	if len(name)+len(suffix) > 63 {
		name = strings.TrimRight(name[:63-len(suffix)], "-")
	}
	return name + suffix
}

func labelValue(s string) string {
	v := invalidNameChars.ReplaceAllString(strings.ToLower(s), "-")
	if len(v) > 63 {
		v = v[:63]
	}
	return strings.Trim(v, "-")
}

func buildInferenceServiceCR(spec domain.ServeSpec) *unstructured.Unstructured {
	labels := map[string]interface{}{
		labelModelName:    labelValue(spec.ModelName),
		labelModelVersion: spec.Version,
	}

	// The mlflow runtime pulls from the underlying artifact location.
	storageURI := spec.Source
	if storageURI == "" {
		storageURI = spec.ModelURI
	}

	modelSpec := map[string]interface{}{
		"storageUri": storageURI,
		"modelFormat": map[string]interface{}{
			"name": mlflowModelFormat,
		},
	}

	return &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "serving.kserve.io/v1beta1",
			"kind":       "InferenceService",
			"metadata": map[string]interface{}{
				"name":   ResourceName(spec.ModelName, spec.Version),
				"labels": labels,
			},
			"spec": map[string]interface{}{
				"predictor": map[string]interface{}{
					"model": modelSpec,
				},
			},
		},
	}
}

// terminalTransitions are modelStatus.transitionStatus values the
// controller does not retry out of.
var terminalTransitions = map[string]bool{
	"BlockedByFailedLoad": true,
	"InvalidSpec":         true,
}

// terminalReasons are failure reasons that need a spec change to clear.
var terminalReasons = map[string]bool{
	"ModelLoadFailed":      true,
	"RuntimeNotRecognized": true,
	"NoSupportingRuntime":  true,
	"RuntimeDisabled":      true,
	"InvalidPredictorSpec": true,
}

func parseStatus(obj *unstructured.Unstructured) *ports.InferenceStatus {
	status := &ports.InferenceStatus{}

	statusMap, found, _ := unstructured.NestedMap(obj.Object, "status")
	if !found {
		return status
	}

	status.URL, _, _ = unstructured.NestedString(statusMap, "url")

	conditions, _, _ := unstructured.NestedSlice(statusMap, "conditions")
	for _, cond := range conditions {
		condMap, ok := cond.(map[string]interface{})
		if !ok {
			continue
		}
		condType, _ := condMap["type"].(string)
		condStatus, _ := condMap["status"].(string)

		if condType == "Ready" {
			status.Ready = condStatus == "True"
			if condStatus == "False" {
				status.Error, _ = condMap["message"].(string)
				status.Reason, _ = condMap["reason"].(string)
			}
			break
		}
	}
	if status.Ready {
		return status
	}

	transition, _, _ := unstructured.NestedString(statusMap, "modelStatus", "transitionStatus")
	if reason, ok, _ := unstructured.NestedString(statusMap, "modelStatus", "lastFailureInfo", "reason"); ok && reason != "" {
		status.Reason = reason
		if msg, _, _ := unstructured.NestedString(statusMap, "modelStatus", "lastFailureInfo", "message"); msg != "" {
			status.Error = msg
		}
	}
	status.Failed = terminalTransitions[transition] || terminalReasons[status.Reason]
	return status
}

// Ensure interface compliance
var _ ports.InferenceCluster = (*kserveClient)(nil)
