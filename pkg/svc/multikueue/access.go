package multikueue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	authenticationv1 "k8s.io/api/authentication/v1"
	corev1 "k8s.io/api/core/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	clientcmd "k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
	"k8s.io/utils/ptr"
)

const (
	// ServiceAccountName is the worker-side identity the manager's Kueue
	// controller uses to dispatch workloads.
	ServiceAccountName = "multikueue-sa"

	clusterRoleName        = "multikueue-role"
	clusterRoleBindingName = "multikueue-crb"

	// tokenTTL bounds the dispatch token lifetime. Sandboxes are throwaway,
	// so a day is plenty.
	tokenTTL = 24 * time.Hour
)

var (
	// ErrTokenEmpty is returned when the TokenRequest API yields no token.
	ErrTokenEmpty = errors.New("token request returned an empty token")
	// ErrClusterCAUnavailable is returned when the worker's CA bundle cannot
	// be read from its client configuration.
	ErrClusterCAUnavailable = errors.New("cluster certificate authority data unavailable")
)

// AccessGenerator builds standalone kubeconfigs granting the manager's Kueue
// controller scoped access to a worker cluster.
type AccessGenerator struct {
	clientset kubernetes.Interface
	namespace string
}

// NewAccessGenerator creates a generator operating on one worker cluster.
// The namespace is where Kueue is installed on that worker.
func NewAccessGenerator(clientset kubernetes.Interface, namespace string) *AccessGenerator {
	return &AccessGenerator{clientset: clientset, namespace: namespace}
}

// EnsureAccess creates or updates the ServiceAccount, ClusterRole, and
// ClusterRoleBinding the dispatch token is issued against.
func (g *AccessGenerator) EnsureAccess(ctx context.Context) error {
	err := g.ensureServiceAccount(ctx)
	if err != nil {
		return err
	}

	err = g.ensureClusterRole(ctx)
	if err != nil {
		return err
	}

	return g.ensureClusterRoleBinding(ctx)
}

// RequestToken requests a bounded ServiceAccount token through the
// TokenRequest API.
func (g *AccessGenerator) RequestToken(ctx context.Context) (string, error) {
	request := &authenticationv1.TokenRequest{
		Spec: authenticationv1.TokenRequestSpec{
			ExpirationSeconds: ptr.To(int64(tokenTTL.Seconds())),
		},
	}

	response, err := g.clientset.CoreV1().
		ServiceAccounts(g.namespace).
		CreateToken(ctx, ServiceAccountName, request, metav1.CreateOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to request token for %s: %w", ServiceAccountName, err)
	}

	if response.Status.Token == "" {
		return "", ErrTokenEmpty
	}

	return response.Status.Token, nil
}

func (g *AccessGenerator) ensureServiceAccount(ctx context.Context) error {
	serviceAccount := &corev1.ServiceAccount{
		ObjectMeta: metav1.ObjectMeta{
			Name:      ServiceAccountName,
			Namespace: g.namespace,
		},
	}

	_, err := g.clientset.CoreV1().
		ServiceAccounts(g.namespace).
		Create(ctx, serviceAccount, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("failed to create service account: %w", err)
	}

	return nil
}

func (g *AccessGenerator) ensureClusterRole(ctx context.Context) error {
	clusterRole := &rbacv1.ClusterRole{
		ObjectMeta: metav1.ObjectMeta{Name: clusterRoleName},
		Rules:      dispatchRules(),
	}

	_, err := g.clientset.RbacV1().
		ClusterRoles().
		Create(ctx, clusterRole, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		_, err = g.clientset.RbacV1().
			ClusterRoles().
			Update(ctx, clusterRole, metav1.UpdateOptions{})
	}

	if err != nil {
		return fmt.Errorf("failed to ensure cluster role: %w", err)
	}

	return nil
}

func (g *AccessGenerator) ensureClusterRoleBinding(ctx context.Context) error {
	binding := &rbacv1.ClusterRoleBinding{
		ObjectMeta: metav1.ObjectMeta{Name: clusterRoleBindingName},
		Subjects: []rbacv1.Subject{{
			Kind:      rbacv1.ServiceAccountKind,
			Name:      ServiceAccountName,
			Namespace: g.namespace,
		}},
		RoleRef: rbacv1.RoleRef{
			APIGroup: rbacv1.GroupName,
			Kind:     "ClusterRole",
			Name:     clusterRoleName,
		},
	}

	_, err := g.clientset.RbacV1().
		ClusterRoleBindings().
		Create(ctx, binding, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("failed to ensure cluster role binding: %w", err)
	}

	return nil
}

// dispatchRules grants the manager's Kueue controller the verbs it needs to
// mirror Jobs and Workloads onto the worker.
func dispatchRules() []rbacv1.PolicyRule {
	return []rbacv1.PolicyRule{
		{
			APIGroups: []string{"batch"},
			Resources: []string{"jobs"},
			Verbs:     []string{"create", "delete", "get", "list", "watch"},
		},
		{
			APIGroups: []string{"batch"},
			Resources: []string{"jobs/status"},
			Verbs:     []string{"get"},
		},
		{
			APIGroups: []string{"kueue.x-k8s.io"},
			Resources: []string{"workloads"},
			Verbs:     []string{"create", "delete", "get", "list", "watch"},
		},
		{
			APIGroups: []string{"kueue.x-k8s.io"},
			Resources: []string{"workloads/status"},
			Verbs:     []string{"get", "patch", "update"},
		},
	}
}

// BuildRemoteKubeconfig assembles a standalone kubeconfig for a worker
// cluster, pointing at the given in-network server URL and authenticating
// with the dispatch token.
func BuildRemoteKubeconfig(
	clusterName, server string,
	caData []byte,
	token string,
) ([]byte, error) {
	config := clientcmdapi.NewConfig()
	config.Clusters[clusterName] = &clientcmdapi.Cluster{
		Server:                   server,
		CertificateAuthorityData: caData,
	}
	config.AuthInfos[ServiceAccountName] = &clientcmdapi.AuthInfo{Token: token}
	config.Contexts[clusterName] = &clientcmdapi.Context{
		Cluster:  clusterName,
		AuthInfo: ServiceAccountName,
	}
	config.CurrentContext = clusterName

	data, err := clientcmd.Write(*config)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize kubeconfig for %s: %w", clusterName, err)
	}

	return data, nil
}

// ClusterCAData extracts the cluster CA bundle from a REST config, reading
// the CA file when the data is not inlined.
func ClusterCAData(restConfig *rest.Config) ([]byte, error) {
	if len(restConfig.CAData) > 0 {
		return restConfig.CAData, nil
	}

	if restConfig.CAFile != "" {
		data, err := os.ReadFile(restConfig.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read cluster CA file: %w", err)
		}

		return data, nil
	}

	return nil, ErrClusterCAUnavailable
}
