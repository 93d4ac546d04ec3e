package k8s

import (
	"fmt"
	"io"
	"os"

	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// kubeconfigFileMode is the file mode for kubeconfig files.
const kubeconfigFileMode = 0o600

// CleanupKubeconfig removes the cluster, context, and user entries for a cluster
// from the kubeconfig file. Only entries matching the provided names are
// removed; other cluster configurations stay intact.
func CleanupKubeconfig(
	kubeconfigPath string,
	clusterName string,
	contextName string,
	userName string,
	logWriter io.Writer,
) error {
	_, statErr := os.Stat(kubeconfigPath)
	if os.IsNotExist(statErr) {
		// No kubeconfig to clean up
		return nil
	}

	kubeconfigBytes, err := os.ReadFile(kubeconfigPath) //nolint:gosec // path is user-provided config
	if err != nil {
		return fmt.Errorf("failed to read kubeconfig: %w", err)
	}

	kubeConfig, err := clientcmd.Load(kubeconfigBytes)
	if err != nil {
		return fmt.Errorf("failed to parse kubeconfig: %w", err)
	}

	if !hasEntriesToCleanup(kubeConfig, contextName, clusterName, userName) {
		return nil
	}

	delete(kubeConfig.Contexts, contextName)
	delete(kubeConfig.Clusters, clusterName)
	delete(kubeConfig.AuthInfos, userName)

	if kubeConfig.CurrentContext == contextName {
		kubeConfig.CurrentContext = ""
	}

	_, _ = fmt.Fprintf(logWriter, "Cleaned up kubeconfig entries for cluster %q\n", clusterName)

	result, err := clientcmd.Write(*kubeConfig)
	if err != nil {
		return fmt.Errorf("failed to serialize kubeconfig: %w", err)
	}

	err = os.WriteFile(kubeconfigPath, result, kubeconfigFileMode)
	if err != nil {
		return fmt.Errorf("failed to write kubeconfig: %w", err)
	}

	return nil
}

// WriteKubeconfig serializes a client config to path with owner-only permissions.
func WriteKubeconfig(config *clientcmdapi.Config, path string) error {
	data, err := clientcmd.Write(*config)
	if err != nil {
		return fmt.Errorf("failed to serialize kubeconfig: %w", err)
	}

	err = os.WriteFile(path, data, kubeconfigFileMode)
	if err != nil {
		return fmt.Errorf("failed to write kubeconfig: %w", err)
	}

	return nil
}

func hasEntriesToCleanup(
	kubeConfig *clientcmdapi.Config,
	contextName, clusterName, userName string,
) bool {
	_, hasContext := kubeConfig.Contexts[contextName]
	_, hasCluster := kubeConfig.Clusters[clusterName]
	_, hasUser := kubeConfig.AuthInfos[userName]

	return hasContext || hasCluster || hasUser || kubeConfig.CurrentContext == contextName
}
